package telnet

import (
	"fmt"
	"strconv"
	"strings"
)

// Telnet opcodes
const (
	// EOR - End Of Record. Used by some remotes as a prompt marker.
	EOR byte = 239
	// SE - Subnegotiation End. IAC SE closes an IAC SB subnegotiation.
	SE byte = 240
	// NOP - No-Op.
	NOP byte = 241
	// DM - Data Mark, the data stream portion of a Synch.
	DM byte = 242
	// BRK - Break.
	BRK byte = 243
	// IP - Interrupt Process.
	IP byte = 244
	// AO - Abort Output.
	AO byte = 245
	// AYT - Are You There.
	AYT byte = 246
	// EC - Erase Character.
	EC byte = 247
	// EL - Erase Line.
	EL byte = 248
	// GA - Go Ahead. Frequently used to mark the end of a prompt line.
	GA byte = 249
	// SB - Subnegotiation Begin. The bytes up to IAC SE are telopt-specific.
	SB byte = 250
	// WILL - the sender intends to activate a telopt on its side
	WILL byte = 251
	// WONT - the sender refuses to activate a telopt on its side
	WONT byte = 252
	// DO - the sender asks the receiver to activate a telopt
	DO byte = 253
	// DONT - the sender demands the receiver not activate a telopt
	DONT byte = 254
	// IAC - Interpret As Command. Introduces every command.
	IAC byte = 255
)

var commandCodes = map[byte]string{
	EOR:  "EOR",
	SE:   "SE",
	NOP:  "NOP",
	DM:   "DM",
	BRK:  "BRK",
	IP:   "IP",
	AO:   "AO",
	AYT:  "AYT",
	EC:   "EC",
	EL:   "EL",
	GA:   "GA",
	SB:   "SB",
	WILL: "WILL",
	WONT: "WONT",
	DO:   "DO",
	DONT: "DONT",
	IAC:  "IAC",
}

// Command is a single IAC command received from or sent to the remote.  Negotiation
// commands (IAC WILL/WONT/DO/DONT <option>) and IAC SB <option> carry an option; every
// other command is just IAC <opcode>.
type Command struct {
	OpCode byte
	Option TelOptCode
}

// IsNegotiation indicates whether this is one of the four option negotiation verbs
func (c Command) IsNegotiation() bool {
	return c.OpCode == DO || c.OpCode == DONT || c.OpCode == WILL || c.OpCode == WONT
}

// hasOption indicates whether the opcode is followed by an option byte on the wire
func (c Command) hasOption() bool {
	return c.IsNegotiation() || c.OpCode == SB
}

// Bytes returns the wire form of the command
func (c Command) Bytes() []byte {
	if c.hasOption() {
		return []byte{IAC, c.OpCode, byte(c.Option)}
	}

	return []byte{IAC, c.OpCode}
}

// String renders the command legibly, e.g. "IAC DO NAWS"
func (c Command) String() string {
	var sb strings.Builder
	sb.WriteString("IAC ")

	opCode, hasOpCode := commandCodes[c.OpCode]
	if !hasOpCode {
		opCode = strconv.Itoa(int(c.OpCode))
	}
	sb.WriteString(opCode)

	if c.hasOption() {
		sb.WriteByte(' ')
		sb.WriteString(c.Option.String())
	}

	return sb.String()
}

// commandSize returns how many bytes, IAC included, the command introduced by opCode
// occupies on the wire
func commandSize(opCode byte) int {
	switch opCode {
	case DO, DONT, WILL, WONT, SB:
		return 3
	default:
		return 2
	}
}

// parseCommand reads a complete command from the front of data, which must begin
// with IAC and contain at least commandSize bytes
func parseCommand(data []byte) (Command, error) {
	if len(data) < 2 || data[0] != IAC {
		return Command{}, fmt.Errorf("command did not begin with IAC and an opcode: %q", commandStream(data))
	}

	if commandSize(data[1]) == 2 {
		return Command{OpCode: data[1]}, nil
	}

	if len(data) < 3 {
		return Command{}, fmt.Errorf("command did not contain an option: %q", commandStream(data))
	}

	return Command{OpCode: data[1], Option: TelOptCode(data[2])}, nil
}

func commandStream(b []byte) string {
	var sb strings.Builder

	for i := 0; i < len(b); i++ {
		if i > 0 {
			sb.WriteRune(' ')
		}

		code, hasCode := commandCodes[b[i]]
		if !hasCode {
			sb.WriteString(strconv.Itoa(int(b[i])))
		} else {
			sb.WriteString(code)
		}
	}

	return sb.String()
}

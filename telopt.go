package telnet

import "strconv"

// TelOptCode - each telopt has a unique identification number between 0 and 255
type TelOptCode byte

// Registered telopt codes the client knows by name
const (
	TelOptTRANSMITBINARY  TelOptCode = 0
	TelOptECHO            TelOptCode = 1
	TelOptSUPPRESSGOAHEAD TelOptCode = 3
	TelOptSTATUS          TelOptCode = 5
	TelOptTIMINGMARK      TelOptCode = 6
	TelOptSENDLOCATION    TelOptCode = 23
	TelOptTTYPE           TelOptCode = 24
	TelOptEOR             TelOptCode = 25
	TelOptNAWS            TelOptCode = 31
	TelOptTSPEED          TelOptCode = 32
	TelOptLFLOW           TelOptCode = 33
	TelOptLINEMODE        TelOptCode = 34
	TelOptXDISPLOC        TelOptCode = 35
	TelOptENVIRON         TelOptCode = 36
	TelOptNEWENVIRON      TelOptCode = 39
	TelOptCHARSET         TelOptCode = 42
	TelOptMSSP            TelOptCode = 70
	TelOptMCCP2           TelOptCode = 86
	TelOptGMCP            TelOptCode = 201
)

var telOptNames = map[TelOptCode]string{
	TelOptTRANSMITBINARY:  "TRANSMIT-BINARY",
	TelOptECHO:            "ECHO",
	TelOptSUPPRESSGOAHEAD: "SUPPRESS-GO-AHEAD",
	TelOptSTATUS:          "STATUS",
	TelOptTIMINGMARK:      "TIMING-MARK",
	TelOptSENDLOCATION:    "SEND-LOCATION",
	TelOptTTYPE:           "TERMINAL-TYPE",
	TelOptEOR:             "END-OF-RECORD",
	TelOptNAWS:            "NAWS",
	TelOptTSPEED:          "TERMINAL-SPEED",
	TelOptLFLOW:           "TOGGLE-FLOW-CONTROL",
	TelOptLINEMODE:        "LINEMODE",
	TelOptXDISPLOC:        "X-DISPLAY-LOCATION",
	TelOptENVIRON:         "ENVIRON",
	TelOptNEWENVIRON:      "NEW-ENVIRON",
	TelOptCHARSET:         "CHARSET",
	TelOptMSSP:            "MSSP",
	TelOptMCCP2:           "MCCP2",
	TelOptGMCP:            "GMCP",
}

func (c TelOptCode) String() string {
	name, ok := telOptNames[c]
	if !ok {
		return "?" + strconv.Itoa(int(c)) + "?"
	}

	return name
}

// DefaultDeniedOptions are the telopts the client refuses to activate on its own side.
// All of them would oblige us to answer subnegotiations describing the local terminal,
// which the client does not do.
var DefaultDeniedOptions = []TelOptCode{
	TelOptTTYPE,
	TelOptNAWS,
	TelOptTSPEED,
	TelOptXDISPLOC,
	TelOptENVIRON,
	TelOptNEWENVIRON,
}

// NegotiationPolicy decides the reply to each negotiation command received from the
// remote.  It keeps no history: the reply depends only on the command and the denylist.
//
// Requests (DO/DONT) about our side are answered WILL unless the request is DONT or the
// option is denied, in which case the answer is WONT. Statements (WILL/WONT) about the
// remote's side are mirrored: WILL is acknowledged with DO and WONT with DONT.
type NegotiationPolicy struct {
	denied [256]bool
}

// NewNegotiationPolicy builds a policy refusing the provided options.  Passing nil uses
// DefaultDeniedOptions.
func NewNegotiationPolicy(denied []TelOptCode) *NegotiationPolicy {
	if denied == nil {
		denied = DefaultDeniedOptions
	}

	policy := &NegotiationPolicy{}
	for _, code := range denied {
		policy.denied[code] = true
	}

	return policy
}

// Denies indicates whether the policy refuses to activate the option locally
func (p *NegotiationPolicy) Denies(option TelOptCode) bool {
	return p.denied[option]
}

// Respond produces the reply to a received command. The bool is false when the command
// gets no reply, which is the case for every opcode other than DO, DONT, WILL and WONT.
func (p *NegotiationPolicy) Respond(c Command) (Command, bool) {
	switch c.OpCode {
	case DO, DONT:
		if c.OpCode == DONT || p.denied[c.Option] {
			return Command{OpCode: WONT, Option: c.Option}, true
		}

		return Command{OpCode: WILL, Option: c.Option}, true
	case WILL, WONT:
		if c.OpCode == WONT {
			return Command{OpCode: DONT, Option: c.Option}, true
		}

		return Command{OpCode: DO, Option: c.Option}, true
	default:
		return Command{}, false
	}
}

package jflow

// State is a state of the JSON parser's explicit stack machine. The set
// is closed and mirrors jsoncons' basic_json_parser states 1:1: the
// bottom of the stack is always Root, and Root is popped only by
// reaching Done.
type State byte

// The full set of parser states.
const (
	Root State = iota
	Start
	Slash
	SlashSlash
	SlashStar
	SlashStarStar
	ExpectCommaOrEnd
	Object
	ExpectMemberNameOrEnd
	ExpectMemberName
	ExpectColon
	ExpectValue
	Array
	String
	MemberName
	Escape
	U1
	U2
	U3
	U4
	ExpectSurrogatePair1
	ExpectSurrogatePair2
	U6
	U7
	U8
	U9
	Minus
	Zero
	Integer
	Fraction
	Exp1
	Exp2
	Exp3
	N
	T
	F
	CR
	LF
	Done
)

var stateNames = [...]string{
	Root: "Root", Start: "Start", Slash: "Slash", SlashSlash: "SlashSlash",
	SlashStar: "SlashStar", SlashStarStar: "SlashStarStar",
	ExpectCommaOrEnd: "ExpectCommaOrEnd", Object: "Object",
	ExpectMemberNameOrEnd: "ExpectMemberNameOrEnd", ExpectMemberName: "ExpectMemberName",
	ExpectColon: "ExpectColon", ExpectValue: "ExpectValue", Array: "Array",
	String: "String", MemberName: "MemberName", Escape: "Escape",
	U1: "U1", U2: "U2", U3: "U3", U4: "U4",
	ExpectSurrogatePair1: "ExpectSurrogatePair1", ExpectSurrogatePair2: "ExpectSurrogatePair2",
	U6: "U6", U7: "U7", U8: "U8", U9: "U9",
	Minus: "Minus", Zero: "Zero", Integer: "Integer", Fraction: "Fraction",
	Exp1: "Exp1", Exp2: "Exp2", Exp3: "Exp3",
	N: "N", T: "T", F: "F", CR: "CR", LF: "LF", Done: "Done",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "invalid state"
}

// stateStack is the non-empty state stack described in spec section 3.
// The bottom slot is always Root; it is only ever replaced by Done, never
// popped, which is what lets top-of-stack code assume len(s) >= 1
// everywhere without a bounds check on every access.
type stateStack []State

func newStateStack() stateStack {
	return append(make(stateStack, 0, 32), Root, Start)
}

func (s stateStack) top() State { return s[len(s)-1] }

// under returns the state directly beneath the top, i.e. the enclosing
// container. Every call site holds len(s) >= 2 because Root/Start are
// pushed together and never both popped; the stack shrinks to a lone Done
// only in Parser.End, which checks the depth before calling under.
func (s stateStack) under() State { return s[len(s)-2] }

func (s *stateStack) setTop(v State) { (*s)[len(*s)-1] = v }

func (s *stateStack) push(v State) { *s = append(*s, v) }

func (s *stateStack) pop() {
	*s = (*s)[:len(*s)-1]
}

func (s stateStack) depth() int { return len(s) }

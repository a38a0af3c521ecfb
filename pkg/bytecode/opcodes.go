package bytecode

// Opcode is a single byte instruction tag.
type Opcode byte

const (
	OpConstant Opcode = iota
	OpNull
	OpTrue
	OpFalse
	OpPop
	OpCopy
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNegate
	OpNot
	OpEqual
	OpGreater
	OpLess
	OpBitwiseAnd
	OpBitwiseOr
	OpBitwiseXor
	OpLeftShift
	OpRightShift
	OpDefineGlobal
	OpGetGlobal
	OpSetGlobal
	OpGetLocal
	OpSetLocal
	OpJump
	OpJumpIfFalse
	OpLoop
	OpCall
	OpReturn
	OpBuildList
	OpBuildMap
	OpBuildRangeList
	OpGetIndex
	OpSetIndex
	OpGetProperty
	OpSetProperty
	OpClass
	OpImport
	OpAttempt
	OpEndAttempt
	OpForEachNext
	OpPanic

	opcodeCount
)

// OperandLen is the number of inline operand bytes following the opcode
// byte, per spec.md §4.2's instruction table.
func (op Opcode) OperandLen() int {
	switch op {
	case OpConstant, OpDefineGlobal, OpGetGlobal, OpSetGlobal,
		OpGetLocal, OpSetLocal, OpCall, OpBuildList, OpBuildMap,
		OpGetProperty, OpSetProperty, OpClass:
		return 1
	case OpJump, OpJumpIfFalse, OpLoop, OpAttempt, OpForEachNext:
		return 2
	default:
		return 0
	}
}

// InstructionLen is OperandLen plus the opcode byte itself.
func (op Opcode) InstructionLen() int {
	return 1 + op.OperandLen()
}

func (op Opcode) IsJump() bool {
	switch op {
	case OpJump, OpJumpIfFalse, OpLoop, OpAttempt, OpForEachNext:
		return true
	default:
		return false
	}
}

var opcodeNames = map[Opcode]string{
	OpConstant:       "CONSTANT",
	OpNull:           "NULL",
	OpTrue:           "TRUE",
	OpFalse:          "FALSE",
	OpPop:            "POP",
	OpCopy:           "COPY",
	OpAdd:            "ADD",
	OpSub:            "SUB",
	OpMul:            "MUL",
	OpDiv:            "DIV",
	OpMod:            "MOD",
	OpNegate:         "NEGATE",
	OpNot:            "NOT",
	OpEqual:          "EQUAL",
	OpGreater:        "GREATER",
	OpLess:           "LESS",
	OpBitwiseAnd:     "BITWISE_AND",
	OpBitwiseOr:      "BITWISE_OR",
	OpBitwiseXor:     "BITWISE_XOR",
	OpLeftShift:      "LEFT_SHIFT",
	OpRightShift:     "RIGHT_SHIFT",
	OpDefineGlobal:   "DEFINE_GLOBAL",
	OpGetGlobal:      "GET_GLOBAL",
	OpSetGlobal:      "SET_GLOBAL",
	OpGetLocal:       "GET_LOCAL",
	OpSetLocal:       "SET_LOCAL",
	OpJump:           "JUMP",
	OpJumpIfFalse:    "JUMP_IF_FALSE",
	OpLoop:           "LOOP",
	OpCall:           "CALL",
	OpReturn:         "RETURN",
	OpBuildList:      "BUILD_LIST",
	OpBuildMap:       "BUILD_MAP",
	OpBuildRangeList: "BUILD_RANGE_LIST",
	OpGetIndex:       "GET_INDEX",
	OpSetIndex:       "SET_INDEX",
	OpGetProperty:    "GET_PROPERTY",
	OpSetProperty:    "SET_PROPERTY",
	OpClass:          "CLASS",
	OpImport:         "IMPORT",
	OpAttempt:        "ATTEMPT",
	OpEndAttempt:     "END_ATTEMPT",
	OpForEachNext:    "FOR_EACH_NEXT",
	OpPanic:          "PANIC",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}

// OpcodeCount returns the number of defined opcodes, mostly useful for
// tests that want to iterate the whole set.
func OpcodeCount() int { return int(opcodeCount) }

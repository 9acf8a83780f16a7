package domain

type Operation string

const (
	OpStartServer         Operation = "StartServer"
	OpStopServer          Operation = "StopServer"
	OpAllocateFrequency   Operation = "AllocateFrequency"
	OpDeallocateFrequency Operation = "DeallocateFrequency"
	OpUnknown             Operation = ""
)

var operations = []Operation{
	OpStartServer,
	OpStopServer,
	OpAllocateFrequency,
	OpDeallocateFrequency,
}

// Operations lists every operation reachable through the dispatcher.
func Operations() []Operation {
	out := make([]Operation, len(operations))
	copy(out, operations)
	return out
}

// ParseOperation matches name case-sensitively against the known operations.
func ParseOperation(name string) Operation {
	for _, op := range operations {
		if string(op) == name {
			return op
		}
	}
	return OpUnknown
}

// HasBody reports whether the operation carries a text parameter.
func (o Operation) HasBody() bool {
	return o == OpDeallocateFrequency
}

package state

// Op names a controller operation that reached the gateway.
type Op string

const (
	OpLoad   Op = "load"
	OpSave   Op = "save"
	OpDelete Op = "delete"
)

var opMessages = map[Op]string{
	OpLoad:   "ไม่สามารถโหลดข้อมูลเอกสารได้",
	OpSave:   "ไม่สามารถบันทึกเอกสารได้",
	OpDelete: "ไม่สามารถลบเอกสารได้",
}

// OpError carries the message shown to users next to the gateway error.
type OpError struct {
	Op      Op
	Message string
	Err     error
}

func newOpError(op Op, err error) *OpError {
	return &OpError{Op: op, Message: opMessages[op], Err: err}
}

func (e *OpError) Error() string {
	return e.Message + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error { return e.Err }

package judge

// StatusID is the judge's numeric execution status for one case.
type StatusID int

const (
	StatusInQueue      StatusID = 1
	StatusProcessing   StatusID = 2
	StatusAccepted     StatusID = 3
	StatusRuntimeFault StatusID = 4
)

// Category is how a finished case counts towards the submission verdict.
type Category int

const (
	CategoryPending Category = iota
	CategoryPass
	CategoryError
	CategoryWrong
)

func (c Category) String() string {
	switch c {
	case CategoryPending:
		return "pending"
	case CategoryPass:
		return "pass"
	case CategoryError:
		return "error"
	default:
		return "wrong"
	}
}

func (s StatusID) IsPending() bool {
	return s == StatusInQueue || s == StatusProcessing
}

// Category classifies s. Ids outside the known set (time limit, compile
// error and anything added to the judge later) fall into CategoryWrong.
func (s StatusID) Category() Category {
	switch s {
	case StatusInQueue, StatusProcessing:
		return CategoryPending
	case StatusAccepted:
		return CategoryPass
	case StatusRuntimeFault:
		return CategoryError
	default:
		return CategoryWrong
	}
}

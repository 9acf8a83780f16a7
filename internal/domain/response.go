package domain

import "encoding/xml"

type ResponseState string

const (
	ResponseOK    ResponseState = "OK"
	ResponseError ResponseState = "ERROR"
)

type ErrorEntry struct {
	ErrorType ErrorType `json:"errorType" xml:"errorType"`
}

type AllocationResult struct {
	FrequencyAllocated int `json:"frequencyAllocated" xml:"frequencyAllocated"`
}

// Response is the envelope returned for every operation. Exactly one of
// success, Result or a non-empty Error list is meaningful.
type Response struct {
	XMLName xml.Name          `json:"-" xml:"freqServerResponse"`
	State   ResponseState     `json:"state" xml:"state"`
	Error   []ErrorEntry      `json:"error" xml:"error"`
	Result  *AllocationResult `json:"result,omitempty" xml:"result,omitempty"`
}

func OK() Response {
	return Response{State: ResponseOK, Error: []ErrorEntry{}}
}

func Allocated(frequency int) Response {
	resp := OK()
	resp.Result = &AllocationResult{FrequencyAllocated: frequency}
	return resp
}

func Failed(kind ErrorType) Response {
	return Response{State: ResponseError, Error: []ErrorEntry{{ErrorType: kind}}}
}

// ErrorType returns the first reported error token, or "" for OK responses.
func (r Response) ErrorType() ErrorType {
	if len(r.Error) == 0 {
		return ""
	}
	return r.Error[0].ErrorType
}

func (r Response) IsOK() bool {
	return r.State == ResponseOK
}

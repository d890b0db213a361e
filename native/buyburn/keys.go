package buyburn

import "fmt"

var (
	roundRecordPrefix = []byte("buyburn/round/")
	roundIndexKey     = []byte("buyburn/round/index")
)

func roundKey(seq uint64) []byte {
	return append(append([]byte{}, roundRecordPrefix...), []byte(fmt.Sprintf("%020d", seq))...)
}

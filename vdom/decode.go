package vdom

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// DecodeTransfer decodes flat snapshot as delivered by transport: JSON array
// of transfer elements.
func DecodeTransfer(data []byte) ([]TransferElem, error) {
	var elems []TransferElem
	if err := sonic.ConfigStd.Unmarshal(data, &elems); err != nil {
		return nil, fmt.Errorf("unable to decode vdom snapshot: %w", err)
	}
	return elems, nil
}

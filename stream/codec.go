package stream

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/hepingood/adxl345/accel"
)

// Batch is one FIFO drain as published on the wire.
type Batch struct {
	Device  string         `json:"device" cbor:"device"`
	Seq     uint64         `json:"seq" cbor:"seq"`
	Time    time.Time      `json:"time" cbor:"time"`
	Rate    string         `json:"rate,omitempty" cbor:"rate,omitempty"`
	Samples []accel.Sample `json:"samples" cbor:"samples"`
}

type Codec string

const (
	CodecJSON Codec = "json"
	CodecCBOR Codec = "cbor"
)

func ParseCodec(s string) (Codec, error) {
	switch Codec(s) {
	case CodecJSON, CodecCBOR:
		return Codec(s), nil
	}
	return "", fmt.Errorf("unknown codec %q", s)
}

var batchEncMode cbor.EncMode
var batchDecMode cbor.DecMode

func init() {
	var err error
	batchEncMode, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create batch CBOR encoder mode: %v", err))
	}
	batchDecMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create batch CBOR decoder mode: %v", err))
	}
}

func (c Codec) Encode(batch Batch) ([]byte, error) {
	switch c {
	case CodecCBOR:
		return batchEncMode.Marshal(batch)
	case CodecJSON, "":
		return json.Marshal(batch)
	}
	return nil, fmt.Errorf("unknown codec %q", string(c))
}

func (c Codec) Decode(data []byte) (Batch, error) {
	var batch Batch
	var err error
	switch c {
	case CodecCBOR:
		err = batchDecMode.Unmarshal(data, &batch)
	case CodecJSON, "":
		err = json.Unmarshal(data, &batch)
	default:
		err = fmt.Errorf("unknown codec %q", string(c))
	}
	return batch, err
}

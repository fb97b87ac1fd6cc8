package kv

var (
	EncodeNATSKey = encodeNATSKey
	DecodeNATSKey = decodeNATSKey
)

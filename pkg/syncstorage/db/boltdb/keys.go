package boltdb

import "encoding/binary"

// userKey encodes a user id as the 8-byte big-endian key of its bucket
// under the top-level "users" bucket. Big-endian keeps bucket iteration
// order numeric, which nothing here depends on but which costs nothing.
func userKey(userID uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, userID)
	return buf
}

// collKey encodes a collection id as a 4-byte big-endian key/bucket name.
func collKey(collectionID int32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(collectionID))
	return buf
}

func decodeCollKey(b []byte) int32 {
	return int32(binary.BigEndian.Uint32(b))
}

// modifiedValue encodes a timestamp as an 8-byte big-endian value.
func modifiedValue(ts int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(ts))
	return buf
}

func decodeModifiedValue(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}

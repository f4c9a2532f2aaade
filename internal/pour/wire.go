package pour

import (
	"encoding/binary"
	"fmt"

	"zeropour/internal/coin"
	"zeropour/internal/merkle"
	"zeropour/internal/zeropourerr"
)

// fixedLen is the byte length of every field Serialize writes before its
// three length-prefixed fields: version (2B BE), rt (merkle.LeafBits/8
// bytes), sn_1, sn_2, cm_1, cm_2 (coin.SnSize/CmSize bytes each),
// v_pub_in, v_pub_out (8B BE each), mac_1, mac_2 (coin.SnSize bytes
// each).
const fixedLen = 2 + merkle.LeafBits/8 + coin.SnSize*2 + coin.CmSize*2 + 8*2 + coin.SnSize*2

// Serialize renders the transaction per the protocol wire format:
// the fixedLen fields described above, then ct_1, ct_2, and proof each
// as a 4-byte big-endian length prefix followed by that many bytes.
func (tx *PourTransaction) Serialize() []byte {
	out := make([]byte, 0, fixedLen+4*3+len(tx.Ct[0])+len(tx.Ct[1])+len(tx.Proof))
	out = binary.BigEndian.AppendUint16(out, tx.Version)
	out = append(out, tx.Rt[:]...)
	out = append(out, tx.Sn[0][:]...)
	out = append(out, tx.Sn[1][:]...)
	out = append(out, tx.Cm[0][:]...)
	out = append(out, tx.Cm[1][:]...)
	out = binary.BigEndian.AppendUint64(out, tx.VPublicIn)
	out = binary.BigEndian.AppendUint64(out, tx.VPublicOut)
	out = append(out, tx.Mac[0][:]...)
	out = append(out, tx.Mac[1][:]...)
	out = appendLengthPrefixed(out, tx.Ct[0])
	out = appendLengthPrefixed(out, tx.Ct[1])
	out = appendLengthPrefixed(out, tx.Proof)
	return out
}

func appendLengthPrefixed(out, data []byte) []byte {
	out = binary.BigEndian.AppendUint32(out, uint32(len(data)))
	return append(out, data...)
}

// Deserialize parses the wire format Serialize produces. It fails with
// a truncation error on a short buffer and a trailing-garbage error when
// bytes remain unconsumed, matching the failure semantics
// internal/merkle.Deserialize uses for its own compact wire format.
func Deserialize(data []byte) (*PourTransaction, error) {
	if len(data) < fixedLen {
		return nil, zeropourerr.New(zeropourerr.KindDeserialization, "pour.Deserialize", fmt.Errorf("truncated: need %d fixed bytes, got %d", fixedLen, len(data)))
	}
	tx := &PourTransaction{}
	pos := 0
	tx.Version = binary.BigEndian.Uint16(data[pos:])
	pos += 2
	copy(tx.Rt[:], data[pos:pos+merkle.LeafBits/8])
	pos += merkle.LeafBits / 8
	for i := 0; i < 2; i++ {
		copy(tx.Sn[i][:], data[pos:pos+coin.SnSize])
		pos += coin.SnSize
	}
	for i := 0; i < 2; i++ {
		copy(tx.Cm[i][:], data[pos:pos+coin.CmSize])
		pos += coin.CmSize
	}
	tx.VPublicIn = binary.BigEndian.Uint64(data[pos:])
	pos += 8
	tx.VPublicOut = binary.BigEndian.Uint64(data[pos:])
	pos += 8
	for i := 0; i < 2; i++ {
		copy(tx.Mac[i][:], data[pos:pos+coin.SnSize])
		pos += coin.SnSize
	}

	var err error
	tx.Ct[0], pos, err = readLengthPrefixed(data, pos)
	if err != nil {
		return nil, err
	}
	tx.Ct[1], pos, err = readLengthPrefixed(data, pos)
	if err != nil {
		return nil, err
	}
	tx.Proof, pos, err = readLengthPrefixed(data, pos)
	if err != nil {
		return nil, err
	}

	if pos != len(data) {
		return nil, zeropourerr.New(zeropourerr.KindDeserialization, "pour.Deserialize", fmt.Errorf("trailing garbage: %d extra bytes", len(data)-pos))
	}
	return tx, nil
}

func readLengthPrefixed(data []byte, pos int) ([]byte, int, error) {
	if len(data) < pos+4 {
		return nil, 0, zeropourerr.New(zeropourerr.KindDeserialization, "pour.Deserialize", fmt.Errorf("truncated: missing length prefix"))
	}
	n := int(binary.BigEndian.Uint32(data[pos:]))
	pos += 4
	if len(data) < pos+n {
		return nil, 0, zeropourerr.New(zeropourerr.KindDeserialization, "pour.Deserialize", fmt.Errorf("truncated: missing %d bytes of a length-prefixed field", n))
	}
	out := make([]byte, n)
	copy(out, data[pos:pos+n])
	return out, pos + n, nil
}

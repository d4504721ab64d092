package mesh

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
)

// encodeSTL writes the solid as binary STL: an 80-byte header, a uint32
// triangle count and 50 bytes per face.
func encodeSTL(w io.Writer, s *Solid) error {
	bw := bufio.NewWriter(w)

	var header [80]byte
	copy(header[:], "print3dhood binary stl")
	if _, err := bw.Write(header[:]); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(s.Triangles))); err != nil {
		return err
	}

	buf := make([]byte, 50)
	for _, t := range s.Triangles {
		n := normalize(t.Normal())
		putVec3(buf[0:], n)
		putVec3(buf[12:], t[0])
		putVec3(buf[24:], t[1])
		putVec3(buf[36:], t[2])
		buf[48], buf[49] = 0, 0
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func putVec3(b []byte, v Vec3) {
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(float32(v.X)))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(float32(v.Y)))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(float32(v.Z)))
}

package mesh

import (
	"bufio"
	"fmt"
	"io"
)

// encodeOBJ writes the solid as a Wavefront OBJ with shared vertices, which
// slicers treat as a welded mesh.
func encodeOBJ(w io.Writer, s *Solid) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, "o print3dhood"); err != nil {
		return err
	}

	index := make(map[Vec3]int)
	faces := make([][3]int, 0, len(s.Triangles))
	for _, t := range s.Triangles {
		var f [3]int
		for i, v := range t {
			id, ok := index[v]
			if !ok {
				id = len(index) + 1
				index[v] = id
				if _, err := fmt.Fprintf(bw, "v %.9g %.9g %.9g\n", v.X, v.Y, v.Z); err != nil {
					return err
				}
			}
			f[i] = id
		}
		faces = append(faces, f)
	}
	for _, f := range faces {
		if _, err := fmt.Fprintf(bw, "f %d %d %d\n", f[0], f[1], f[2]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

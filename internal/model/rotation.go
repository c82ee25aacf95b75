package model

// NormalizeRotation converts a blockstate rotation into a quarter-turn
// count in [0,3]. It accepts degrees (multiples of 90) or quarter-turns.
func NormalizeRotation(r int) int {
	if r%90 == 0 && (r > 3 || r < -3) {
		r = r / 90
	}
	r %= 4
	if r < 0 {
		r += 4
	}
	return r
}

// rotateX turns a centred vector about the X axis, quarter turns taking
// up to north.
func rotateX(v [3]float64, q int) [3]float64 {
	for i := 0; i < q; i++ {
		v = [3]float64{v[0], v[2], -v[1]}
	}
	return v
}

// rotateY turns a centred vector about the Y axis, quarter turns taking
// north to east.
func rotateY(v [3]float64, q int) [3]float64 {
	for i := 0; i < q; i++ {
		v = [3]float64{-v[2], v[1], v[0]}
	}
	return v
}

type rotation struct{ qx, qy int }

func (r rotation) point(p [3]float64) [3]float64 {
	c := [3]float64{p[0] - 8, p[1] - 8, p[2] - 8}
	c = rotateY(rotateX(c, r.qx), r.qy)
	return [3]float64{c[0] + 8, c[1] + 8, c[2] + 8}
}

func (r rotation) vec(v [3]int) [3]int {
	f := rotateY(rotateX([3]float64{float64(v[0]), float64(v[1]), float64(v[2])}, r.qx), r.qy)
	return [3]int{int(f[0]), int(f[1]), int(f[2])}
}

func (r rotation) direction(d Direction) Direction {
	return directionFromVec(r.vec(d.Vec()))
}

// Rotate turns the model by rotX then rotY degrees about the block centre.
// Faces and cull faces follow the geometry. With uvLock the face UVs are
// recomputed from the rotated element bounds so the texture stays aligned to
// the world grid; without it the UVs travel with their face.
func (m *Model) Rotate(rotX, rotY int, uvLock bool) {
	r := rotation{qx: NormalizeRotation(rotX), qy: NormalizeRotation(rotY)}
	if r.qx == 0 && r.qy == 0 {
		return
	}
	for i := range m.Elements {
		m.Elements[i] = r.element(m.Elements[i], uvLock)
	}
}

func (r rotation) element(e Element, uvLock bool) Element {
	a := r.point(e.From)
	b := r.point(e.To)
	for k := 0; k < 3; k++ {
		if a[k] > b[k] {
			a[k], b[k] = b[k], a[k]
		}
	}
	e.From, e.To = a, b

	if e.Rotation != nil {
		er := *e.Rotation
		er.Origin = r.point(er.Origin)
		axis := r.vec(axisVec(er.Axis))
		for k, c := range axis {
			if c != 0 {
				er.Axis = "xyz"[k]
				if c < 0 {
					er.Angle = -er.Angle
				}
			}
		}
		e.Rotation = &er
	}

	faces := make(map[Direction]Face, len(e.Faces))
	for d, f := range e.Faces {
		nd := r.direction(d)
		if f.CullFace != nil {
			c := r.direction(*f.CullFace)
			f.CullFace = &c
		}
		if uvLock {
			f.UV = DefaultUV(nd, e.From, e.To)
			f.Rotation = 0
		}
		faces[nd] = f
	}
	e.Faces = faces
	return e
}

func axisVec(axis byte) [3]int {
	switch axis {
	case 'x':
		return [3]int{1, 0, 0}
	case 'z':
		return [3]int{0, 0, 1}
	default:
		return [3]int{0, 1, 0}
	}
}

// DefaultUV is the UV rectangle a face gets when its model omits one: the
// projection of the element box onto the face plane.
func DefaultUV(d Direction, from, to [3]float64) [4]float64 {
	switch d {
	case Down:
		return [4]float64{from[0], 16 - to[2], to[0], 16 - from[2]}
	case Up:
		return [4]float64{from[0], from[2], to[0], to[2]}
	case North:
		return [4]float64{16 - to[0], 16 - to[1], 16 - from[0], 16 - from[1]}
	case South:
		return [4]float64{from[0], 16 - to[1], to[0], 16 - from[1]}
	case West:
		return [4]float64{from[2], 16 - to[1], to[2], 16 - from[1]}
	default:
		return [4]float64{16 - to[2], 16 - to[1], 16 - from[2], 16 - from[1]}
	}
}

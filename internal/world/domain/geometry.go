package domain

// Size длина ребра чанка в вокселях
const Size = 16

// Volume количество вокселей в чанке
const Volume = Size * Size * Size

// Face грань чанка. FaceNone означает "этот же чанк".
type Face uint8

const (
	FaceNone Face = iota
	FaceNegX
	FacePosX
	FaceNegY
	FacePosY
	FaceNegZ
	FacePosZ
)

// FaceCount количество граней чанка
const FaceCount = 6

// Opposite возвращает противоположную грань
func (f Face) Opposite() Face {
	switch f {
	case FaceNegX:
		return FacePosX
	case FacePosX:
		return FaceNegX
	case FaceNegY:
		return FacePosY
	case FacePosY:
		return FaceNegY
	case FaceNegZ:
		return FacePosZ
	case FacePosZ:
		return FaceNegZ
	}
	return FaceNone
}

// Offset возвращает смещение координат чанка для грани
func (f Face) Offset() (dx, dy, dz int) {
	switch f {
	case FaceNegX:
		return -1, 0, 0
	case FacePosX:
		return 1, 0, 0
	case FaceNegY:
		return 0, -1, 0
	case FacePosY:
		return 0, 1, 0
	case FaceNegZ:
		return 0, 0, -1
	case FacePosZ:
		return 0, 0, 1
	}
	return 0, 0, 0
}

// Idx переводит локальные координаты вокселя в линейный индекс.
// Порядок обхода Y-Z-X: соседние по X воксели лежат рядом в памяти.
func Idx(x, y, z int) int {
	return y*Size*Size + z*Size + x
}

// XYZ обратное преобразование линейного индекса в локальные координаты
func XYZ(idx int) (x, y, z int) {
	y = idx / (Size * Size)
	rem := idx % (Size * Size)
	z = rem / Size
	x = rem % Size
	return
}

// InBounds проверяет, что линейный индекс попадает в чанк
func InBounds(idx int) bool {
	return idx >= 0 && idx < Volume
}

// NeighborRef ссылка на соседний воксель.
// Face == FaceNone — сосед в этом же чанке, иначе Idx указывает
// на воксель в чанке за соответствующей гранью.
type NeighborRef struct {
	Idx  int
	Face Face
}

// Neighbors возвращает шесть соседей вокселя по осям.
// Для вокселей на границе чанка индекс заворачивается на
// противоположную сторону, а Face указывает грань перехода.
func Neighbors(idx int) [6]NeighborRef {
	x, y, z := XYZ(idx)
	var out [6]NeighborRef

	if x > 0 {
		out[0] = NeighborRef{Idx: Idx(x-1, y, z)}
	} else {
		out[0] = NeighborRef{Idx: Idx(Size-1, y, z), Face: FaceNegX}
	}
	if x < Size-1 {
		out[1] = NeighborRef{Idx: Idx(x+1, y, z)}
	} else {
		out[1] = NeighborRef{Idx: Idx(0, y, z), Face: FacePosX}
	}
	if y > 0 {
		out[2] = NeighborRef{Idx: Idx(x, y-1, z)}
	} else {
		out[2] = NeighborRef{Idx: Idx(x, Size-1, z), Face: FaceNegY}
	}
	if y < Size-1 {
		out[3] = NeighborRef{Idx: Idx(x, y+1, z)}
	} else {
		out[3] = NeighborRef{Idx: Idx(x, 0, z), Face: FacePosY}
	}
	if z > 0 {
		out[4] = NeighborRef{Idx: Idx(x, y, z-1)}
	} else {
		out[4] = NeighborRef{Idx: Idx(x, y, Size-1), Face: FaceNegZ}
	}
	if z < Size-1 {
		out[5] = NeighborRef{Idx: Idx(x, y, z+1)}
	} else {
		out[5] = NeighborRef{Idx: Idx(x, y, 0), Face: FacePosZ}
	}

	return out
}

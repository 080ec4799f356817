package contract

// Point3: 世界坐标系下的三维点（x, y, z）。
type Point3 [3]float64

// FaceType: 重建面类型。
type FaceType string

const (
	FaceWall        FaceType = "wall"
	FaceFloor       FaceType = "floor"
	FaceRoofCeiling FaceType = "roof_ceiling"
)

// BoundaryCondition: 面的边界条件。
type BoundaryCondition string

const (
	Outdoors  BoundaryCondition = "outdoors"
	Adiabatic BoundaryCondition = "adiabatic"
	Ground    BoundaryCondition = "ground"
)

// SubFace: 嵌套在墙面上的窗/门矩形，四角点与父面共面。
type SubFace struct {
	ID       string   `json:"id" yaml:"id"`
	Boundary []Point3 `json:"boundary" yaml:"boundary"`
}

// Face: 单个平面面片（世界坐标，外法线方向由顶点绕序决定）。
type Face struct {
	ID                string            `json:"id" yaml:"id"`
	Type              FaceType          `json:"type" yaml:"type"`
	BoundaryCondition BoundaryCondition `json:"boundary_condition" yaml:"boundary_condition"`
	Boundary          []Point3          `json:"boundary" yaml:"boundary"`
	Apertures         []SubFace         `json:"apertures" yaml:"apertures"`
	Doors             []SubFace         `json:"doors" yaml:"doors"`
}

// Room: 由一个 SPACE 重建的房间。Story 为所属 FLOOR 的名称。
type Room struct {
	Name  string `json:"name" yaml:"name"`
	Story string `json:"story" yaml:"story"`
	Faces []Face `json:"faces" yaml:"faces"`
}

// Building: 单个输入文件的重建结果，交由 Encoder/Writer 处理。
type Building struct {
	FileID FileID `json:"file_id" yaml:"file_id"`
	Rooms  []Room `json:"rooms" yaml:"rooms"`
}

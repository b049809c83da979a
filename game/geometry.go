package game

import "math"

// Wall 轴对齐的静态矩形障碍，开局后在整局内不再变化
type Wall struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Collides 判断以 (x, y) 为中心、半边长 radius 的碰撞盒是否穿入任一墙体。
// 四边均为严格不等式：恰好贴边不算碰撞。
func Collides(x, y, radius float64, walls []Wall) bool {
	for _, w := range walls {
		if x+radius > w.X && x-radius < w.X+w.Width &&
			y+radius > w.Y && y-radius < w.Y+w.Height {
			return true
		}
	}
	return false
}

// InBounds 判断碰撞盒是否完整落在 [0, mapW] x [0, mapH] 内，贴边允许
func InBounds(x, y, radius, mapW, mapH float64) bool {
	return x-radius >= 0 && x+radius <= mapW &&
		y-radius >= 0 && y+radius <= mapH
}

// PointInRect 判断点是否落在矩形内，含边界，用于座位摆放检查
func PointInRect(x, y float64, r Wall) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Distance 两点间欧氏距离
func Distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}

// DefaultWalls 默认地图布局：四周 20 像素边框，加三条内部走廊
func DefaultWalls(mapW, mapH float64) []Wall {
	return []Wall{
		{X: 0, Y: 0, Width: mapW, Height: 20},
		{X: 0, Y: mapH - 20, Width: mapW, Height: 20},
		{X: 0, Y: 0, Width: 20, Height: mapH},
		{X: mapW - 20, Y: 0, Width: 20, Height: mapH},

		{X: 200, Y: 100, Width: 20, Height: 400},
		{X: 400, Y: 600, Width: 800, Height: 20},
		{X: 1000, Y: 200, Width: 20, Height: 800},
	}
}

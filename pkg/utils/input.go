// Package utils 提供通用工具函数
package utils

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// DefaultSwipeThreshold 判定为滑动的最小水平距离（像素）
const DefaultSwipeThreshold = 60

// Gesture 一次按下-释放识别出的手势
type Gesture int

const (
	// GestureNone 无手势（未释放或移动距离不足以判定）
	GestureNone Gesture = iota
	// GestureTap 点击/轻触
	GestureTap
	// GestureSwipeLeft 向左滑动
	GestureSwipeLeft
	// GestureSwipeRight 向右滑动
	GestureSwipeRight
)

func (g Gesture) String() string {
	switch g {
	case GestureTap:
		return "tap"
	case GestureSwipeLeft:
		return "swipe-left"
	case GestureSwipeRight:
		return "swipe-right"
	default:
		return "none"
	}
}

// PointerInfo 指针跟踪信息
type PointerInfo struct {
	// Pressed 是否处于按下状态
	Pressed bool
	// StartX, StartY 按下位置（屏幕坐标）
	StartX, StartY int
	// CurrentX, CurrentY 当前位置（屏幕坐标）
	CurrentX, CurrentY int
	// TouchID 当前跟踪的触摸ID（-1 表示鼠标）
	TouchID ebiten.TouchID
}

// GestureTracker 跟踪鼠标/触摸的按下-移动-释放过程，释放时识别手势
//
// 桌面端与移动端共用：优先跟踪触摸，其次鼠标左键。
type GestureTracker struct {
	// SwipeThreshold 水平移动超过该距离判定为滑动，0 使用 DefaultSwipeThreshold
	SwipeThreshold int

	info PointerInfo
}

// NewGestureTracker 创建手势跟踪器
func NewGestureTracker() *GestureTracker {
	return &GestureTracker{
		SwipeThreshold: DefaultSwipeThreshold,
		info:           PointerInfo{TouchID: -1},
	}
}

// Update 读取本帧输入并返回识别出的手势（每帧调用一次）
func (gt *GestureTracker) Update() Gesture {
	if !gt.info.Pressed {
		if ids := inpututil.AppendJustPressedTouchIDs(nil); len(ids) > 0 {
			x, y := ebiten.TouchPosition(ids[0])
			gt.Press(x, y)
			gt.info.TouchID = ids[0]
			return GestureNone
		}
		if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
			x, y := ebiten.CursorPosition()
			gt.Press(x, y)
		}
		return GestureNone
	}

	if gt.info.TouchID >= 0 {
		if inpututil.IsTouchJustReleased(gt.info.TouchID) {
			return gt.Release()
		}
		x, y := ebiten.TouchPosition(gt.info.TouchID)
		gt.Move(x, y)
		return GestureNone
	}

	if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		return gt.Release()
	}
	x, y := ebiten.CursorPosition()
	gt.Move(x, y)
	return GestureNone
}

// Press 记录按下
func (gt *GestureTracker) Press(x, y int) {
	gt.info = PointerInfo{
		Pressed:  true,
		StartX:   x,
		StartY:   y,
		CurrentX: x,
		CurrentY: y,
		TouchID:  -1,
	}
}

// Move 更新当前位置，未按下时忽略
func (gt *GestureTracker) Move(x, y int) {
	if !gt.info.Pressed {
		return
	}
	gt.info.CurrentX, gt.info.CurrentY = x, y
}

// Release 结束跟踪并识别手势
//
// 水平距离达到阈值且大于垂直距离为滑动，移动很小为点击，其余（如竖直拖动）不识别。
func (gt *GestureTracker) Release() Gesture {
	if !gt.info.Pressed {
		return GestureNone
	}
	gt.info.Pressed = false

	threshold := gt.SwipeThreshold
	if threshold <= 0 {
		threshold = DefaultSwipeThreshold
	}

	dx, dy := gt.Distance()
	adx, ady := abs(dx), abs(dy)

	switch {
	case adx >= threshold && adx > ady:
		if dx < 0 {
			return GestureSwipeLeft
		}
		return GestureSwipeRight
	case adx < threshold/2 && ady < threshold/2:
		return GestureTap
	default:
		return GestureNone
	}
}

// Info 返回当前跟踪信息（释放后保留最后一次的位置）
func (gt *GestureTracker) Info() PointerInfo {
	return gt.info
}

// Distance 返回从按下位置到当前位置的距离
func (gt *GestureTracker) Distance() (dx, dy int) {
	return gt.info.CurrentX - gt.info.StartX, gt.info.CurrentY - gt.info.StartY
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

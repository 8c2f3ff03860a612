package kinect

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/colornames"

	"essaim.dev/kinect2/pixels"
	"essaim.dev/kinect2/sensor"
)

var (
	boneColors = map[Confidence]color.Color{
		Confident: colornames.Green,
		Uncertain: colornames.Gray,
	}
	jointColors = map[Confidence]color.Color{
		Confident: color.RGBA{R: 50, G: 200, B: 50, A: 255},
		Uncertain: colornames.Yellow,
	}
	handColors = map[sensor.HandState]color.Color{
		sensor.HandClosed: colornames.Red,
		sensor.HandOpen:   colornames.Green,
		sensor.HandLasso:  colornames.Blue,
	}
)

const (
	boneWidth   = 3
	jointRadius = 3
	handRadius  = 15
)

// GrayImage renders the top byte of a 16-bit buffer as opaque gray.
func GrayImage(b pixels.Buffer[uint16]) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	if !b.IsAllocated() {
		return img
	}

	for i := 0; i < b.Width*b.Height; i++ {
		v := uint8(b.Pix[i*b.Channels] >> 8)
		o := i * 4
		img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3] = v, v, v, 255
	}

	return img
}

// MaskImage paints player pixels of a body index mask with c and leaves the
// background transparent.
func MaskImage(mask pixels.Buffer[uint16], c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, mask.Width, mask.Height))
	if !mask.IsAllocated() {
		return img
	}

	rgba, _ := color.RGBAModel.Convert(c).(color.RGBA)
	for i := 0; i < mask.Width*mask.Height; i++ {
		if mask.Pix[i*mask.Channels] != pixels.PlayerValue {
			continue
		}
		o := i * 4
		img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3] = rgba.R, rgba.G, rgba.B, rgba.A
	}

	return img
}

// Mirror flips img horizontally.
func Mirror(img image.Image) *image.NRGBA {
	return imaging.FlipH(img)
}

// SkeletonImage draws bodies on a transparent image of the given size. Joint
// points are expected in that size, see BodyStream.SetViewport.
func SkeletonImage(size image.Point, bodies []Body) *image.RGBA {
	img := image.NewRGBA(image.Rectangle{Max: size})
	dc := gg.NewContextForRGBA(img)

	for _, b := range bodies {
		DrawSkeleton(dc, b)
	}

	return img
}

// DrawSkeleton draws bones, joints and hand states of b.
func DrawSkeleton(dc *gg.Context, b Body) {
	joints := b.Joints()
	points := b.JointPoints()

	dc.SetLineWidth(boneWidth)
	for _, bone := range Bones {
		c, ok := boneColors[ClassifyBone(joints[bone.From].State, joints[bone.To].State)]
		if !ok {
			continue
		}

		from, to := points[bone.From], points[bone.To]
		dc.SetColor(c)
		dc.DrawLine(from.X, from.Y, to.X, to.Y)
		dc.Stroke()
	}

	for i, j := range joints {
		c, ok := jointColors[ClassifyJoint(j.State)]
		if !ok {
			continue
		}

		dc.SetColor(c)
		dc.DrawCircle(points[i].X, points[i].Y, jointRadius)
		dc.Fill()
	}

	drawHand(dc, points[sensor.JointHandLeft].X, points[sensor.JointHandLeft].Y, b.LeftHand())
	drawHand(dc, points[sensor.JointHandRight].X, points[sensor.JointHandRight].Y, b.RightHand())
}

func drawHand(dc *gg.Context, x, y float64, state sensor.HandState) {
	c, ok := handColors[state]
	if !ok {
		return
	}

	dc.SetColor(withAlpha(c, 128))
	dc.DrawCircle(x, y, handRadius)
	dc.Fill()
}

func withAlpha(c color.Color, a uint8) color.NRGBA {
	n, _ := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = a
	return n
}

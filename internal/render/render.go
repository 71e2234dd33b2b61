// Package render draws a PNG circuit diagram for a single QIR function,
// adapted from the teacher project's gg-based circuit renderer onto QCL's
// own IR types instead of a pre-lowered gate circuit.
package render

import (
	"fmt"
	"image"
	"image/png"
	"math"
	"os"

	"github.com/fogleman/gg"

	"github.com/qclabs/qcl/ir"
	"github.com/qclabs/qcl/lang/ast"
)

// Renderer draws QIR onto a PNG canvas, one grid cell per qubit-wire row
// and per applied operation column.
type Renderer struct{ Cell float64 }

// New returns a renderer using cellPx as both the row height and the
// column width.
func New(cellPx int) Renderer { return Renderer{Cell: float64(cellPx)} }

// step is one column's worth of drawing work, resolved from a QIR op.
type step struct {
	kind   string // "gate", "measure"
	gate   ir.Gate
	qubits []int // row indices, in the op's own argument order
	cbit   int
}

// layout flattens a function's blocks (in BlockOrder) into one linear
// timeline; every block is drawn one after another and branch structure
// is not diagrammed.
func layout(fn *ir.Function) (numQubits int, steps []step) {
	rows := map[ir.QubitId]int{}
	nextRow := 0
	rowOf := func(q ir.QubitId) int {
		if r, ok := rows[q]; ok {
			return r
		}
		r := nextRow
		rows[q] = r
		nextRow++
		return r
	}

	for _, id := range fn.BlockOrder {
		b := fn.Blocks[id]
		if b == nil {
			continue
		}
		for _, op := range b.Ops {
			switch o := op.(type) {
			case ir.AllocQubit:
				rowOf(o.Result)
			case ir.ApplyGate:
				var rows2 []int
				for _, a := range o.Args {
					for _, q := range ir.QubitsIn(a) {
						rows2 = append(rows2, rowOf(q))
					}
				}
				steps = append(steps, step{kind: "gate", gate: o.Gate, qubits: rows2})
			case ir.Measure:
				steps = append(steps, step{kind: "measure", qubits: []int{rowOf(o.Qubit)}, cbit: int(o.Cbit)})
			}
		}
	}
	return nextRow, steps
}

// Render draws fn's circuit diagram.
func (r Renderer) Render(fn *ir.Function) (image.Image, error) {
	numQubits, steps := layout(fn)
	if numQubits == 0 {
		numQubits = 1
	}
	cols := len(steps)
	if cols == 0 {
		cols = 1
	}

	w := int(float64(cols) * r.Cell)
	h := int(float64(numQubits) * r.Cell)

	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	for i := 0; i < numQubits; i++ {
		y := r.y(i)
		dc.DrawLine(0, y, float64(w), y)
		dc.Stroke()
	}

	for col, s := range steps {
		switch s.kind {
		case "gate":
			r.drawGate(dc, col, s)
		case "measure":
			r.drawMeasure(dc, col, s.qubits[0])
		}
	}

	return dc.Image(), nil
}

// Save renders fn and writes it to path as a PNG.
func (r Renderer) Save(path string, fn *ir.Function) error {
	img, err := r.Render(fn)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func (r Renderer) x(col int) float64 { return float64(col)*r.Cell + r.Cell/2 }
func (r Renderer) y(row int) float64 { return float64(row)*r.Cell + r.Cell/2 }

func (r Renderer) drawGate(dc *gg.Context, col int, s step) {
	switch s.gate.Kind {
	case ast.GateCNOT, ast.GateSWAP:
		if len(s.qubits) != 2 {
			fmt.Fprintf(os.Stderr, "render: %s at step %d missing operands\n", s.gate.Kind, col)
			return
		}
		if s.gate.Kind == ast.GateCNOT {
			r.drawCNOT(dc, col, s.qubits[0], s.qubits[1])
		} else {
			r.drawSwap(dc, col, s.qubits[0], s.qubits[1])
		}
	default:
		if len(s.qubits) != 1 {
			fmt.Fprintf(os.Stderr, "render: %s at step %d missing operand\n", s.gate.Kind, col)
			return
		}
		r.drawBox(dc, col, s.qubits[0], s.gate.String())
	}
}

func (r Renderer) drawBox(dc *gg.Context, col, row int, label string) {
	x, y := r.x(col), r.y(row)
	size := r.Cell * 0.7
	dc.DrawRectangle(x-size/2, y-size/2, size, size)
	dc.SetRGB(1, 1, 1)
	dc.FillPreserve()
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.Stroke()
	dc.DrawStringAnchored(label, x, y, 0.5, 0.5)
}

func (r Renderer) drawCNOT(dc *gg.Context, col, ctrlRow, targetRow int) {
	x := r.x(col)
	dc.SetRGB(0, 0, 0)
	dc.DrawCircle(x, r.y(ctrlRow), r.Cell*0.12)
	dc.Fill()

	dc.DrawLine(x, r.y(ctrlRow), x, r.y(targetRow))
	dc.Stroke()

	ty := r.y(targetRow)
	dc.DrawCircle(x, ty, r.Cell*0.18)
	dc.Stroke()
	dc.DrawLine(x-r.Cell*0.18, ty, x+r.Cell*0.18, ty)
	dc.Stroke()
	dc.DrawLine(x, ty-r.Cell*0.18, x, ty+r.Cell*0.18)
	dc.Stroke()
}

func (r Renderer) drawSwap(dc *gg.Context, col, row1, row2 int) {
	x := r.x(col)
	y1, y2 := r.y(row1), r.y(row2)
	dc.SetRGB(0, 0, 0)
	r.drawSwapCross(dc, x, y1)
	r.drawSwapCross(dc, x, y2)
	dc.DrawLine(x, y1, x, y2)
	dc.Stroke()
}

func (r Renderer) drawSwapCross(dc *gg.Context, x, y float64) {
	d := r.Cell * 0.18
	dc.DrawLine(x-d, y-d, x+d, y+d)
	dc.Stroke()
	dc.DrawLine(x-d, y+d, x+d, y-d)
	dc.Stroke()
}

func (r Renderer) drawMeasure(dc *gg.Context, col, row int) {
	x, y := r.x(col), r.y(row)
	rad := r.Cell * 0.25
	dc.SetRGB(0, 0, 0)
	dc.NewSubPath()
	dc.DrawArc(x, y, rad, math.Pi, 2*math.Pi)
	dc.ClosePath()
	dc.Stroke()
	dc.MoveTo(x, y)
	dc.LineTo(x+rad*0.8, y-rad*0.8)
	dc.Stroke()
	dc.DrawStringAnchored("M", x+rad*1.6, y-rad*0.4, 0.0, 0.5)
}

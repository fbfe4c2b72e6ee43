package rdcio

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/nanalysis/nmrfx-sub023/internal/rdc"
)

// Write emits obs with their back-calculated couplings:
//
//	label,x,y,z,exp,err,max,calc
//
// The output can be read back with Read.
func Write(w io.Writer, obs []rdc.Observation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{ColLabel, ColX, ColY, ColZ, ColExp, ColErr, ColMax, ColCalc}); err != nil {
		return err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, o := range obs {
		rec := []string{
			o.Label,
			f(o.Vector.X), f(o.Vector.Y), f(o.Vector.Z),
			f(o.ExpRDC), f(o.Error), f(o.MaxRDC), f(o.CalcRDC),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

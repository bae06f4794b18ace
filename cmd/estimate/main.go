package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"

	"pvfit/internal/estimate"
	"pvfit/internal/ingest"
	"pvfit/internal/model"
)

func main() {
	inputDir := flag.String("input-dir", "input", "directory containing IV-curve CSV files")
	ns := flag.Int("ns", 0, "number of series cells in the module (required)")
	aisc := flag.Float64("aisc", 0, "temperature coefficient of Isc in A/°C (required)")
	maxIter := flag.Int("maxiter", 5, "max refinement iterations")
	eps := flag.Float64("eps", 1e-3, "convergence tolerance on the MPP error statistics")
	flag.Parse()

	if *ns <= 0 {
		log.Fatal("missing -ns: the series cell count is required")
	}
	if *aisc == 0 {
		log.Fatal("missing -aisc: the Isc temperature coefficient is required")
	}

	curves := loadCurves(*inputDir)
	if len(curves) == 0 {
		log.Fatalf("no IV-curve CSV files found in %s", *inputDir)
	}

	specs := model.ModuleSpecs{Ns: *ns, Aisc: *aisc}
	opts := estimate.Options{MaxIter: *maxIter, Eps1: *eps}

	res, err := estimate.Estimate(curves, specs, opts)
	if err != nil {
		log.Fatalf("estimation failed: %v", err)
	}
	if !res.Success {
		log.Fatal("estimation failed: the diode factor regression did not produce a usable gamma")
	}

	printReport(curves, res)
}

func loadCurves(inputDir string) []model.IVCurve {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		log.Fatalf("reading %s: %v", inputDir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	parser := ingest.NewCurveParser()
	var curves []model.IVCurve
	for _, name := range names {
		path := filepath.Join(inputDir, name)
		f, err := os.Open(path)
		if err != nil {
			log.Fatalf("opening %s: %v", path, err)
		}
		curve, err := parser.Parse(f)
		f.Close()
		if err != nil {
			log.Fatalf("parsing %s: %v", path, err)
		}
		curves = append(curves, curve)
		log.Printf("loaded %s: Ee=%.0f W/m², Tc=%.1f °C, %d samples", name, curve.Ee, curve.Tc, len(curve.V))
	}
	return curves
}

func printReport(curves []model.IVCurve, res estimate.Result) {
	ee := make([]float64, len(curves))
	for j, c := range curves {
		ee[j] = c.Ee
	}

	usable := 0
	for _, ok := range res.U {
		if ok {
			usable++
		}
	}

	fmt.Println()
	fmt.Println("PVsyst Single-Diode Parameters")
	fmt.Printf("  Curves: %d (%d usable), Ee %.0f-%.0f W/m²\n",
		len(curves), usable, floats.Min(ee), floats.Max(ee))
	fmt.Println()
	fmt.Printf("  IL_ref    = %.4f A\n", res.ILRef)
	fmt.Printf("  Io_ref    = %.4e A\n", res.IoRef)
	fmt.Printf("  eG        = %.4f eV\n", res.EG)
	fmt.Printf("  Rs_ref    = %.4f ohm\n", res.RsRef)
	fmt.Printf("  Rsh_ref   = %.1f ohm\n", res.RshRef)
	fmt.Printf("  Rsh0      = %.1f ohm\n", res.Rsh0)
	fmt.Printf("  Rshexp    = %.1f\n", res.Rshexp)
	fmt.Printf("  gamma_ref = %.4f\n", res.GammaRef)
	fmt.Printf("  mugamma   = %.4e 1/°C\n", res.MuGamma)
	fmt.Printf("  Ns        = %d\n", res.Ns)
	fmt.Println()

	fmt.Println("Per-curve parameters")
	for j := range curves {
		mark := " "
		if !res.U[j] {
			mark = "x"
		}
		fmt.Printf("  %s %2d: Ee=%6.0f Tc=%5.1f  Iph=%.4f  Io=%.3e  Rs=%.4f  Rsh=%.1f\n",
			mark, j, curves[j].Ee, curves[j].Tc, res.Iph[j], res.Io[j], res.Rs[j], res.Rsh[j])
	}

	if len(res.History) > 0 {
		fmt.Println()
		fmt.Println("Convergence (per iteration, % error against measured MPP)")
		for j, h := range res.History {
			fmt.Printf("  iter %d: |Pmp err| max %.3f%%  mean %+.3f%%  std %.3f%%\n",
				j+1, h.Pmp.AbsMax, h.Pmp.Mean, h.Pmp.Std)
		}
	}
}

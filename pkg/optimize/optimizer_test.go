package optimize_test

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/agroscope/agroscope/pkg/optimize"
	"github.com/agroscope/agroscope/pkg/table"
)

var plants = []string{"Channo", "Pune", "Kolkata", "UP"}

func row(t *testing.T, costs map[string]any) *table.Dataset {
	t.Helper()
	rec := map[string]any{"BU": "India", "Season": "Winter", "Region": "North", "Potato": "Variety A"}
	for k, v := range costs {
		rec[k] = v
	}
	cols := append([]string{"BU", "Season", "Region", "Potato"}, plants...)
	ds, err := table.FromMaps(cols, rec)
	if err != nil {
		t.Fatalf("FromMaps: %v", err)
	}
	return ds
}

// fixtureRow loads the CSV fixture, strips the price suffixes and returns the
// India/Winter/North/Variety A row.
func fixtureRow(t *testing.T) *table.Dataset {
	t.Helper()
	ds, err := table.Load("../../testdata/potato_costs.csv", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ds, err = table.NormalizeColumns(ds, table.DefaultSuffixes...)
	if err != nil {
		t.Fatalf("NormalizeColumns: %v", err)
	}
	for _, f := range [][2]string{{"BU", "India"}, {"Season", "Winter"}, {"Region", "North"}, {"Potato", "Variety A"}} {
		ds, err = table.Filter(ds, f[0], f[1])
		if err != nil {
			t.Fatalf("Filter: %v", err)
		}
	}
	return ds
}

func TestOptimizeRelocation(t *testing.T) {
	rows := row(t, map[string]any{"Channo": 100, "Pune": 80, "Kolkata": 120, "UP": 90})

	got, err := optimize.New(plants...).Optimize(rows, "Channo")
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	want := optimize.Result{
		BusinessUnit:     "India",
		SelectedPlant:    "Channo",
		DestinationPlant: "Pune",
		SelectedCost:     100,
		DestinationCost:  80,
		CostDifference:   20,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestOptimizeAlreadyOptimal(t *testing.T) {
	rows := row(t, map[string]any{"Channo": 100, "Pune": 80, "Kolkata": 120, "UP": 90})

	got, err := optimize.New(plants...).Optimize(rows, "Pune")
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if got.CostDifference != 0 || !got.AlreadyOptimal() {
		t.Errorf("got %+v, want zero difference at Pune", got)
	}

	msg := optimize.Narrate(got)
	if !strings.Contains(msg, "already the lowest-cost plant") {
		t.Errorf("Narrate = %q, want the already-optimal message", msg)
	}
	if strings.Contains(msg, "relocating") {
		t.Errorf("Narrate = %q, should not suggest relocation", msg)
	}
}

func TestOptimizeTieGoesToDeclaredOrder(t *testing.T) {
	rows := row(t, map[string]any{"Channo": 100, "Pune": 80, "Kolkata": 120, "UP": 80})

	for i := 0; i < 20; i++ {
		got, err := optimize.New(plants...).Optimize(rows, "Kolkata")
		if err != nil {
			t.Fatalf("Optimize: %v", err)
		}
		if got.DestinationPlant != "Pune" {
			t.Fatalf("run %d: destination = %s, want Pune", i, got.DestinationPlant)
		}
	}

	reversed := optimize.New("UP", "Kolkata", "Pune", "Channo")
	got, err := reversed.Optimize(rows, "Kolkata")
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if got.DestinationPlant != "UP" {
		t.Errorf("reversed order destination = %s, want UP", got.DestinationPlant)
	}
}

func TestOptimizeIsIdempotent(t *testing.T) {
	rows := fixtureRow(t)
	o := optimize.New(plants...)

	first, err := o.Optimize(rows, "Kolkata")
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	second, err := o.Optimize(rows, "Kolkata")
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Errorf("results differ:\n%s\n%s", a, b)
	}
}

func TestOptimizeRowCount(t *testing.T) {
	o := optimize.New(plants...)

	empty, err := table.New(append([]string{"BU"}, plants...))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := o.Optimize(empty, "Pune"); !errors.Is(err, optimize.ErrNoMatchingRow) {
		t.Errorf("zero rows: error = %v, want ErrNoMatchingRow", err)
	}

	two, err := table.FromMaps(append([]string{"BU"}, plants...),
		map[string]any{"BU": "India", "Channo": 1, "Pune": 2, "Kolkata": 3, "UP": 4},
		map[string]any{"BU": "India", "Channo": 4, "Pune": 3, "Kolkata": 2, "UP": 1},
	)
	if err != nil {
		t.Fatal(err)
	}
	_, err = o.Optimize(two, "Pune")
	var amb *optimize.AmbiguousRowError
	if !errors.As(err, &amb) || amb.Count != 2 {
		t.Errorf("two rows: error = %v, want AmbiguousRowError{2}", err)
	}
	if !errors.Is(err, optimize.ErrAmbiguousRow) {
		t.Errorf("AmbiguousRowError should match ErrAmbiguousRow")
	}
}

func TestOptimizeUnknownPlant(t *testing.T) {
	rows := row(t, map[string]any{"Channo": 100, "Pune": 80, "Kolkata": 120, "UP": 90})
	_, err := optimize.New(plants...).Optimize(rows, "Delhi")
	if !errors.Is(err, optimize.ErrUnknownPlant) {
		t.Errorf("error = %v, want ErrUnknownPlant", err)
	}
}

func TestOptimizeMissingPlantColumn(t *testing.T) {
	rows := row(t, map[string]any{"Channo": 100, "Pune": 80, "Kolkata": 120, "UP": 90})
	_, err := optimize.New("Channo", "Pune", "Indore").Optimize(rows, "Channo")
	if !errors.Is(err, table.ErrColumnNotFound) {
		t.Errorf("error = %v, want ErrColumnNotFound", err)
	}
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{20, 20},
		{19.4, 19},
		{19.5, 20},
		{20.5, 21},
		{0.49, 0},
		{0.49999999999999994, 0},
		{2.5000000000000004, 3},
		{-0.5, 0},
		{-1.5, -1},
		{-1.6, -2},
	}
	for _, tt := range tests {
		if got := optimize.RoundHalfUp(tt.in); got != tt.want {
			t.Errorf("RoundHalfUp(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestOptimizeRoundsFractionalDifference(t *testing.T) {
	rows := row(t, map[string]any{"Channo": 100, "Pune": 80.5, "Kolkata": 120, "UP": 90})
	got, err := optimize.New(plants...).Optimize(rows, "Channo")
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	// 19.5 rounds up.
	if got.CostDifference != 20 {
		t.Errorf("CostDifference = %d, want 20", got.CostDifference)
	}
}

func TestBreakdown(t *testing.T) {
	rows := fixtureRow(t)
	b, err := optimize.New(plants...).Breakdown(rows, "Pune")
	if err != nil {
		t.Fatalf("Breakdown: %v", err)
	}

	want := optimize.Breakdown{
		Plant: "Pune",
		Components: []optimize.ComponentValue{
			{Name: "Buying Rate", Column: "Buying Rate $/Ton", Value: 50},
			{Name: "Plant Loss", Column: "Plant Loss $/Ton", Value: 5},
			{Name: "Cold Store Loss", Column: "Cold Store Loss $/Ton", Value: 3},
			{Name: "Leno Bag and Others", Column: "Leno Bag and Others $/Ton", Value: 4},
			{Name: "Transportation", Column: "Transportation cost Pune", Value: 18},
		},
	}
	if diff := cmp.Diff(want, b); diff != "" {
		t.Errorf("breakdown mismatch (-want +got):\n%s", diff)
	}
	if b.Total() != 80 {
		t.Errorf("Total() = %d, want 80", b.Total())
	}

	line := optimize.Itemize(b)
	if !strings.HasPrefix(line, "Consumption cost at Pune: Buying Rate $50") {
		t.Errorf("Itemize = %q", line)
	}
}

func TestBreakdownMissingComponent(t *testing.T) {
	rows := row(t, map[string]any{"Channo": 100, "Pune": 80, "Kolkata": 120, "UP": 90})
	_, err := optimize.New(plants...).Breakdown(rows, "Pune")

	var cnf *optimize.ComponentNotFoundError
	if !errors.As(err, &cnf) {
		t.Fatalf("error = %v, want ComponentNotFoundError", err)
	}
	if cnf.Component != "Buying Rate" {
		t.Errorf("component = %q, want Buying Rate", cnf.Component)
	}
	if !errors.Is(err, table.ErrColumnNotFound) {
		t.Error("ComponentNotFoundError should unwrap to ErrColumnNotFound")
	}
}

func TestNarrateRelocation(t *testing.T) {
	r := optimize.Result{SelectedPlant: "Channo", DestinationPlant: "Pune", CostDifference: 20}
	want := "By relocating production from Channo to the Pune, the estimated cost savings are $20/ton"
	if got := optimize.Narrate(r); got != want {
		t.Errorf("Narrate = %q, want %q", got, want)
	}
}

func TestPlantSeries(t *testing.T) {
	s, err := optimize.PlantSeries(fixtureRow(t), plants)
	if err != nil {
		t.Fatalf("PlantSeries: %v", err)
	}
	if diff := cmp.Diff(plants, s.Labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{100, 80, 120, 90}, s.Values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestPlantSeriesSkipsEmptyCells(t *testing.T) {
	rows := row(t, map[string]any{"Channo": 100, "Pune": 80, "Kolkata": 120})
	s, err := optimize.PlantSeries(rows, plants)
	if err != nil {
		t.Fatalf("PlantSeries: %v", err)
	}
	if diff := cmp.Diff([]string{"Channo", "Pune", "Kolkata"}, s.Labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{100, 80, 120}, s.Values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}

	// ArgMin over the same row agrees with the series.
	got, err := optimize.New(plants...).Optimize(rows, "Channo")
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if got.DestinationPlant != "Pune" || got.CostDifference != 20 {
		t.Errorf("result = %+v", got)
	}
}

func TestRegionAverages(t *testing.T) {
	ds, err := table.Load("../../testdata/potato_costs.csv", "")
	if err != nil {
		t.Fatal(err)
	}
	ds, err = table.NormalizeColumns(ds, table.DefaultSuffixes...)
	if err != nil {
		t.Fatal(err)
	}
	india, err := table.Filter(ds, "BU", "India")
	if err != nil {
		t.Fatal(err)
	}

	s, err := optimize.RegionAverages(india, "Region", plants)
	if err != nil {
		t.Fatalf("RegionAverages: %v", err)
	}
	if diff := cmp.Diff([]string{"North", "South", "East"}, s.Labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}

	// North: plant means 100, 86.67, 108.33, 92.47 over three rows.
	north := (100.0 + (80+95+85)/3.0 + (120+105+100)/3.0 + (90+95+92.4)/3.0) / 4
	want := []float64{north, 132.5, 111.375}
	for i := range want {
		if math.Abs(s.Values[i]-want[i]) > 1e-9 {
			t.Errorf("%s = %v, want %v", s.Labels[i], s.Values[i], want[i])
		}
	}
}

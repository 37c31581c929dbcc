package customers

import (
	"fmt"
	"math"
	"time"

	"github.com/Lumos-Labs-HQ/txsynth/internal/config"
	"github.com/Lumos-Labs-HQ/txsynth/internal/sampler"
	"github.com/Lumos-Labs-HQ/txsynth/internal/table"
)

const ageStdDev = 15.0

type Customer struct {
	ID         string
	Name       string
	Age        int
	Income     float64
	SignupDate time.Time
	Region     string
}

var (
	firstNames = []string{
		"Lucía", "Hugo", "Martina", "Mateo", "Sofía", "Martín", "María", "Lucas", "Julia", "Leo",
		"Paula", "Daniel", "Valeria", "Alejandro", "Emma", "Pablo", "Carmen", "Álvaro", "Elena", "Javier",
	}
	lastNames = []string{
		"García", "Rodríguez", "González", "Fernández", "López", "Martínez", "Sánchez", "Pérez", "Gómez", "Martín",
		"Jiménez", "Ruiz", "Hernández", "Díaz", "Moreno", "Muñoz", "Álvarez", "Romero", "Alonso", "Navarro",
	}
)

type Generator struct {
	cfg config.Customers
	s   *sampler.Sampler
}

func NewGenerator(cfg config.Customers, s *sampler.Sampler) *Generator {
	return &Generator{cfg: cfg, s: s}
}

// Generate draws cfg.NRows independent customers. Each attribute is drawn
// for the whole batch before the next one.
func (g *Generator) Generate() ([]Customer, error) {
	n := g.cfg.NRows
	if n < 0 {
		return nil, fmt.Errorf("n_rows must be >= 0, got %d", n)
	}

	start, end, err := g.cfg.SignupDate.Bounds()
	if err != nil {
		return nil, fmt.Errorf("signup_date: %w", err)
	}

	regions, err := g.s.NewChooser(g.cfg.Region.Values, g.cfg.Region.Weights)
	if err != nil {
		return nil, fmt.Errorf("region distribution: %w", err)
	}

	out := make([]Customer, n)
	for i := range out {
		out[i].ID = g.s.UUID()
	}
	for i := range out {
		out[i].Name = g.name()
	}
	for i := range out {
		out[i].Age = g.age()
	}
	for i := range out {
		out[i].Income = g.income()
	}
	for i := range out {
		out[i].SignupDate = g.s.UniformSeconds(start, end)
	}
	for i := range out {
		out[i].Region = regions.Pick()
	}

	return out, nil
}

func (g *Generator) name() string {
	first := firstNames[int(g.s.Float64()*float64(len(firstNames)))]
	last := lastNames[int(g.s.Float64()*float64(len(lastNames)))]
	return first + " " + last
}

// age is clipped to the configured range, then truncated.
func (g *Generator) age() int {
	lo, hi := float64(g.cfg.Age.Min), float64(g.cfg.Age.Max)
	a := g.s.Normal((lo+hi)/2, ageStdDev)
	return int(math.Min(math.Max(a, lo), hi))
}

// income is clipped at zero and then raised to the floor.
func (g *Generator) income() float64 {
	inc := math.Max(g.s.Normal(g.cfg.Income.Mean, g.cfg.Income.StdDev), 0)
	return math.Max(inc, g.cfg.Income.Floor)
}

func ToTable(cs []Customer) *table.Table {
	ids := make([]string, len(cs))
	names := make([]string, len(cs))
	ages := make([]int64, len(cs))
	incomes := make([]float64, len(cs))
	signups := make([]time.Time, len(cs))
	regions := make([]string, len(cs))

	for i, c := range cs {
		ids[i] = c.ID
		names[i] = c.Name
		ages[i] = int64(c.Age)
		incomes[i] = c.Income
		signups[i] = c.SignupDate
		regions[i] = c.Region
	}

	t := table.New("customers")
	_ = t.AddStrings("customer_id", ids)
	_ = t.AddStrings("customer_name", names)
	_ = t.AddInts("age", ages)
	_ = t.AddFloats("income", incomes)
	_ = t.AddTimes("signup_date", signups)
	_ = t.AddStrings("region", regions)
	return t
}

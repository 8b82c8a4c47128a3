package sim

import (
	"errors"
	"math"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/walks/internal/output"
	"github.com/san-kum/walks/internal/rng"
	"github.com/san-kum/walks/internal/walk"
	"gonum.org/v1/gonum/stat"
)

var _ = Describe("Simulation", func() {
	var cfg Config

	BeforeEach(func() {
		cfg = DefaultConfig()
		cfg.Diffusion = []float64{0, 0}
		cfg.T = 3
		cfg.Dt = 1
	})

	Describe("configuration", func() {
		DescribeTable("rejects invalid parameters",
			func(mutate func(*Config), target error) {
				mutate(&cfg)
				_, err := New(cfg, constantField(0, 0))
				Expect(err).To(MatchError(target))
			},
			Entry("zero dim", func(c *Config) { c.Dim = 0 }, walk.ErrInvalidConfig),
			Entry("more dims than streams", func(c *Config) {
				c.Dim = rng.MaxStreams + 1
				c.Diffusion = make([]float64, c.Dim)
			}, walk.ErrInvalidConfig),
			Entry("diffusion length", func(c *Config) { c.Diffusion = []float64{1} }, walk.ErrDimensionMismatch),
			Entry("negative diffusion", func(c *Config) { c.Diffusion = []float64{0.1, -0.1} }, walk.ErrNegativeDiffusion),
			Entry("zero duration", func(c *Config) { c.T = 0 }, walk.ErrInvalidDuration),
			Entry("negative duration", func(c *Config) { c.T = -1 }, walk.ErrInvalidDuration),
			Entry("zero dt", func(c *Config) { c.Dt = 0 }, walk.ErrInvalidTimestep),
			Entry("negative dt", func(c *Config) { c.Dt = -0.1 }, walk.ErrInvalidTimestep),
			Entry("negative save stride", func(c *Config) { c.SaveEvery = -2 }, walk.ErrInvalidConfig),
			Entry("records without path", func(c *Config) { c.Sink = output.KindRecords }, walk.ErrInvalidConfig),
		)

		It("rejects a nil field", func() {
			_, err := New(cfg, nil)
			Expect(err).To(MatchError(walk.ErrInvalidConfig))
		})

		It("fails construction when the sink cannot be opened", func() {
			cfg.Sink = output.KindRecords
			cfg.SinkPath = filepath.Join(GinkgoT().TempDir(), "missing", "walks.rec")
			_, err := New(cfg, constantField(0, 0))
			Expect(err).To(HaveOccurred())
		})

		It("starts unconfigured with an empty ensemble", func() {
			s, err := New(cfg, constantField(0, 0))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.State()).To(Equal(Unconfigured))
			Expect(s.N()).To(Equal(0))
			Expect(s.Config().SaveEvery).To(Equal(1))
			for _, m := range s.MeanPosition() {
				Expect(math.IsNaN(m)).To(BeTrue())
			}
		})
	})

	Describe("initial condition", func() {
		var s *Simulation
		points := walk.Positions{{0, 0, 0, 0}, {0, 1, 2, 3}}

		BeforeEach(func() {
			var err error
			s, err = New(cfg, constantField(1, 0))
			Expect(err).NotTo(HaveOccurred())
		})

		It("replicates every point consecutively", func() {
			Expect(s.SetInitialCondition(points, 2)).To(Succeed())
			Expect(s.State()).To(Equal(Initialized))
			Expect(s.N()).To(Equal(8))

			pos := s.Positions()
			for i := 0; i < 8; i += 2 {
				Expect(pos.Column(i)).To(Equal(pos.Column(i + 1)))
				Expect(pos.Column(i)).To(Equal(points.Column(i / 2)))
			}
			Expect(pos[1][7]).To(Equal(3.0))
			Expect(pos[1][6]).To(Equal(3.0))
		})

		It("keeps points unchanged without replication", func() {
			Expect(s.SetInitialCondition(points, 1)).To(Succeed())
			Expect(s.Positions()).To(Equal(points))
		})

		It("accepts a single point", func() {
			Expect(s.SetInitialPoint([]float64{0, 0}, 100)).To(Succeed())
			Expect(s.N()).To(Equal(100))
		})

		It("rejects bad input", func() {
			Expect(s.SetInitialCondition(points, 0)).To(MatchError(walk.ErrInvalidReplication))
			Expect(s.SetInitialPoint([]float64{0, 0, 0}, 1)).To(MatchError(walk.ErrDimensionMismatch))
			Expect(s.SetInitialCondition(walk.Positions{{0, 1}, {0}}, 1)).To(MatchError(walk.ErrDimensionMismatch))
			Expect(s.State()).To(Equal(Unconfigured))
		})

		It("does not alias the caller's array", func() {
			p := walk.Positions{{1}, {2}}
			Expect(s.SetInitialCondition(p, 1)).To(Succeed())
			p[0][0] = 42
			Expect(s.Positions()[0][0]).To(Equal(1.0))
		})
	})

	Describe("running", func() {
		It("requires an initial condition", func() {
			s, err := New(cfg, constantField(1, 0))
			Expect(err).NotTo(HaveOccurred())

			err = s.Run(nil)
			Expect(err).To(MatchError(walk.ErrNoInitialCondition))
			Expect(err.Error()).To(ContainSubstring("initial condition not set"))
		})

		It("drifts a single walker to (3, 0)", func() {
			s, err := New(cfg, constantField(1, 0))
			Expect(err).NotTo(HaveOccurred())
			defer s.Close()

			Expect(s.SetInitialPoint([]float64{0, 0}, 1)).To(Succeed())
			Expect(s.Run(seed(1))).To(Succeed())
			Expect(s.State()).To(Equal(Completed))
			Expect(s.Time()).To(Equal(3.0))

			Expect(s.MeanPosition()[0]).To(BeNumerically("~", 3, 1e-12))
			Expect(s.MeanPosition()[1]).To(BeNumerically("~", 0, 1e-12))

			tr, err := s.Trajectory()
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Len()).To(Equal(4))
			last := tr.Positions[tr.Len()-1]
			Expect(last[0][0]).To(BeNumerically("~", 3, 1e-12))
			Expect(last[1][0]).To(BeNumerically("~", 0, 1e-12))
		})

		It("moves every replicated walker by the same drift", func() {
			s, err := New(cfg, constantField(1, 0))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.SetInitialCondition(walk.Positions{{0, 0, 0, 0}, {0, 1, 2, 3}}, 2)).To(Succeed())
			orig := s.Positions()

			Expect(s.Run(nil)).To(Succeed())
			pos := s.Positions()
			for i := 0; i < s.N(); i++ {
				Expect(pos[0][i]).To(BeNumerically("~", orig[0][i]+3, 1e-12))
				Expect(pos[1][i]).To(BeNumerically("~", orig[1][i], 1e-12))
			}
		})

		It("is exact without diffusion regardless of the noise", func() {
			cfg.T, cfg.Dt = 1, 0.1
			s, err := New(cfg, constantField(0.5, -0.25))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.SetInitialCondition(walk.Positions{{1, -2}, {3, 4}}, 50)).To(Succeed())
			orig := s.Positions()

			Expect(s.Run(seed(99))).To(Succeed())
			pos := s.Positions()
			k := float64(StepCount(cfg.T, cfg.Dt))
			for i := 0; i < s.N(); i++ {
				Expect(pos[0][i]).To(BeNumerically("~", orig[0][i]+k*0.5*0.1, 1e-12))
				Expect(pos[1][i]).To(BeNumerically("~", orig[1][i]-k*0.25*0.1, 1e-12))
			}
		})

		It("keeps the ensemble mean in place under pure diffusion", func() {
			cfg.Diffusion = []float64{0.01, 0.01}
			cfg.T, cfg.Dt = 1000, 1
			cfg.SaveEvery = 100
			s, err := New(cfg, constantField(0, 0))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.SetInitialCondition(walk.NewPositions(2, 10000), 1)).To(Succeed())

			Expect(s.Run(seed(5747387))).To(Succeed())
			pos := s.Positions()
			for d, m := range s.MeanPosition() {
				Expect(m).To(BeNumerically("~", 0, 0.25))
				// Var(x) = 2 D T
				Expect(stat.Variance(pos[d], nil)).To(BeNumerically("~", 20, 2))
			}
		})

		DescribeTable("forwards ceil(steps/m)+1 snapshots",
			func(T, dt float64, m, want int) {
				cfg.T, cfg.Dt, cfg.SaveEvery = T, dt, m
				s, err := New(cfg, constantField(0, 0))
				Expect(err).NotTo(HaveOccurred())
				Expect(s.SetInitialPoint([]float64{0, 0}, 1)).To(Succeed())
				Expect(s.Run(nil)).To(Succeed())

				tr, err := s.Trajectory()
				Expect(err).NotTo(HaveOccurred())
				Expect(tr.Len()).To(Equal(want))
				Expect(tr.Times[0]).To(Equal(0.0))
			},
			Entry("every step", 3.0, 1.0, 1, 4),
			Entry("stride 3", 10.0, 1.0, 3, 5),
			Entry("fractional dt", 1.0, 0.1, 1, 11),
			Entry("fractional dt stride 4", 1.0, 0.1, 4, 4),
			Entry("uneven division", 1.0, 0.3, 1, 5),
		)

		It("produces identical record files for identical seeds", func() {
			dir := GinkgoT().TempDir()
			cfg.Diffusion = []float64{0.5, 0.1}
			cfg.T, cfg.Dt = 5, 0.5
			cfg.Sink = output.KindRecords

			run := func(name string, seedValue int64) []byte {
				c := cfg
				c.SinkPath = filepath.Join(dir, name)
				s, err := New(c, constantField(0.2, 0))
				Expect(err).NotTo(HaveOccurred())
				Expect(s.SetInitialPoint([]float64{0, 0}, 20)).To(Succeed())
				Expect(s.AddSources([]float64{1.2}, [][]float64{{1, 1}}, 5)).To(Succeed())
				Expect(s.Run(seed(seedValue))).To(Succeed())
				Expect(s.Close()).To(Succeed())
				data, err := os.ReadFile(c.SinkPath)
				Expect(err).NotTo(HaveOccurred())
				return data
			}

			a := run("a.rec", 5747387)
			b := run("b.rec", 5747387)
			c := run("c.rec", 5747388)
			Expect(a).NotTo(BeEmpty())
			Expect(a).To(Equal(b))
			Expect(a).NotTo(Equal(c))
		})

		It("forwards field options untouched", func() {
			cfg.FieldOptions = walk.Options{"rate": 2.0, "label": "shear"}
			var seen []walk.Options
			field := walk.FieldFunc(func(pos walk.Positions, opts walk.Options) (walk.Positions, error) {
				seen = append(seen, opts)
				return walk.NewPositions(pos.Dim(), pos.N()), nil
			})
			s, err := New(cfg, field)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.SetInitialPoint([]float64{0, 0}, 1)).To(Succeed())
			Expect(s.Run(nil)).To(Succeed())

			Expect(seen).To(HaveLen(3))
			for _, opts := range seen {
				Expect(opts).To(Equal(walk.Options{"rate": 2.0, "label": "shear"}))
			}
		})

		It("aborts with the field's error and keeps partial progress", func() {
			boom := errors.New("field exploded")
			calls := 0
			field := walk.FieldFunc(func(pos walk.Positions, _ walk.Options) (walk.Positions, error) {
				calls++
				if calls == 3 {
					return nil, boom
				}
				return walk.Constant(pos.N(), 1, 0), nil
			})
			s, err := New(cfg, field)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.SetInitialPoint([]float64{0, 0}, 1)).To(Succeed())

			err = s.Run(nil)
			Expect(err).To(MatchError(boom))
			var simErr *walk.SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.Step).To(Equal(2))
			Expect(simErr.Time).To(Equal(2.0))
			Expect(s.State()).To(Equal(Aborted))
			Expect(s.Positions()[0][0]).To(BeNumerically("~", 2, 1e-12))
		})

		It("rejects drift of the wrong shape", func() {
			s, err := New(cfg, constantField(1, 0, 0))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.SetInitialPoint([]float64{0, 0}, 1)).To(Succeed())
			Expect(s.Run(nil)).To(MatchError(walk.ErrDimensionMismatch))
		})

		It("refuses to run twice without a new initial condition", func() {
			s, err := New(cfg, constantField(1, 0))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.SetInitialPoint([]float64{0, 0}, 1)).To(Succeed())
			Expect(s.Run(nil)).To(Succeed())
			Expect(s.Run(nil)).To(MatchError(walk.ErrNoInitialCondition))

			Expect(s.SetInitialPoint([]float64{0, 0}, 1)).To(Succeed())
			Expect(s.Run(nil)).To(Succeed())
		})

		It("is not re-entrant", func() {
			var s *Simulation
			var inner error
			obs := observerFunc(func(step int, _ float64, _ walk.Positions) {
				if step == 0 {
					inner = s.Run(nil)
				}
			})
			var err error
			s, err = New(cfg, constantField(1, 0), WithObserver(obs))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.SetInitialPoint([]float64{0, 0}, 1)).To(Succeed())
			Expect(s.Run(nil)).To(Succeed())
			Expect(inner).To(MatchError(walk.ErrRunning))
		})

		It("reports the stream seeds it used", func() {
			s, err := New(cfg, constantField(1, 0))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.SetInitialPoint([]float64{0, 0}, 1)).To(Succeed())
			Expect(s.Run(seed(3))).To(Succeed())
			Expect(s.StreamSeeds()).To(HaveLen(2))
		})
	})
})

type observerFunc func(step int, t float64, pos walk.Positions)

func (f observerFunc) OnStep(step int, t float64, pos walk.Positions) { f(step, t, pos) }

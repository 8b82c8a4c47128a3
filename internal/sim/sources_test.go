package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/walks/internal/walk"
)

var _ = Describe("Sources", func() {
	var (
		s       *Simulation
		counter *stepCounter
	)

	BeforeEach(func() {
		cfg := DefaultConfig()
		cfg.Diffusion = []float64{0.1, 0.1}
		cfg.T = 5
		cfg.Dt = 1

		counter = &stepCounter{}
		var err error
		s, err = New(cfg, constantField(0, 0), WithObserver(counter))
		Expect(err).NotTo(HaveOccurred())
		Expect(s.SetInitialPoint([]float64{0, 0}, 1)).To(Succeed())
	})

	It("ends the schedule with a sentinel past the run", func() {
		srcs := s.Sources()
		Expect(srcs).To(HaveLen(1))
		Expect(srcs[0].Time).To(Equal(6.0))
		Expect(srcs[0].Count()).To(Equal(0))
	})

	It("injects a source exactly once, in the step containing its time", func() {
		Expect(s.AddSources([]float64{2.5}, [][]float64{{1, 1}}, 5)).To(Succeed())
		Expect(s.Run(seed(7))).To(Succeed())

		Expect(counter.counts).To(Equal([]int{1, 1, 6, 6, 6}))
		Expect(s.N()).To(Equal(6))
		Expect(s.Sources()).To(HaveLen(1))
	})

	It("injects every source due in the same interval", func() {
		Expect(s.AddSources([]float64{1.2, 1.7}, [][]float64{{1, 1}, {2, 2}}, 2, 3)).To(Succeed())
		Expect(s.Run(nil)).To(Succeed())
		Expect(counter.counts).To(Equal([]int{1, 6, 6, 6, 6}))
	})

	It("places injected walkers at the source point", func() {
		Expect(s.AddSources([]float64{4}, [][]float64{{7, -3}}, 4)).To(Succeed())
		Expect(s.Run(nil)).To(Succeed())

		pos := s.Positions()
		Expect(pos.N()).To(Equal(5))
		for i := 1; i < 5; i++ {
			Expect(pos.Column(i)).To(Equal([]float64{7, -3}))
		}
	})

	It("treats interval boundaries as half open", func() {
		Expect(s.AddSources([]float64{0, 3, 5}, [][]float64{{0, 0}, {0, 0}, {0, 0}})).To(Succeed())
		Expect(s.Run(nil)).To(Succeed())

		Expect(counter.counts).To(Equal([]int{2, 2, 2, 3, 3}))
		// t = T lies beyond the last interval.
		remaining := s.Sources()
		Expect(remaining).To(HaveLen(2))
		Expect(remaining[0].Time).To(Equal(5.0))
	})

	It("grows an empty ensemble from sources alone", func() {
		Expect(s.SetInitialCondition(walk.NewPositions(2, 0), 1)).To(Succeed())
		Expect(s.AddSources([]float64{0, 2}, [][]float64{{0, 0}, {1, 0}}, 10)).To(Succeed())
		Expect(s.Run(seed(11))).To(Succeed())
		Expect(counter.counts).To(Equal([]int{10, 10, 20, 20, 20}))
	})

	It("replaces an earlier schedule", func() {
		Expect(s.AddSources([]float64{1}, [][]float64{{0, 0}}, 100)).To(Succeed())
		Expect(s.AddSources([]float64{2}, [][]float64{{0, 0}}, 2)).To(Succeed())
		Expect(s.Run(nil)).To(Succeed())
		Expect(s.N()).To(Equal(3))
	})

	DescribeTable("rejects malformed schedules",
		func(times []float64, points [][]float64, reps []int, target error) {
			Expect(s.AddSources(times, points, reps...)).To(MatchError(target))
			Expect(s.Sources()).To(HaveLen(1))
		},
		Entry("decreasing times", []float64{2, 1}, [][]float64{{0, 0}, {0, 0}}, nil, walk.ErrInvalidSchedule),
		Entry("negative time", []float64{-1}, [][]float64{{0, 0}}, nil, walk.ErrInvalidSchedule),
		Entry("zero replication", []float64{1}, [][]float64{{0, 0}}, []int{0}, walk.ErrInvalidReplication),
		Entry("wrong point dimension", []float64{1}, [][]float64{{0, 0, 0}}, nil, walk.ErrDimensionMismatch),
		Entry("times and points differ", []float64{1, 2}, [][]float64{{0, 0}}, nil, walk.ErrDimensionMismatch),
		Entry("replication count mismatch", []float64{1, 2, 3}, [][]float64{{0, 0}, {0, 0}, {0, 0}}, []int{1, 2}, walk.ErrDimensionMismatch),
	)

	It("accepts multi-point sources", func() {
		err := s.ScheduleSources([]Source{{
			Time:        1,
			Points:      walk.Positions{{0, 1, 2}, {0, 0, 0}},
			Replication: 2,
		}})
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Run(nil)).To(Succeed())
		Expect(s.N()).To(Equal(7))
	})
})

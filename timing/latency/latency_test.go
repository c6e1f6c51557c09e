package latency_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/isrsim/insts"
	"github.com/sarchlab/isrsim/timing/latency"
)

var _ = Describe("Latency", func() {
	var (
		table  *latency.Table
		parser *insts.Parser
	)

	BeforeEach(func() {
		table = latency.NewTable()
		parser = insts.NewParser()
	})

	mustParse := func(line string) *insts.Instruction {
		inst, err := parser.ParseLine(line)
		Expect(err).NotTo(HaveOccurred())
		return inst
	}

	Describe("Default Timing Values", func() {
		It("should have correct add and sub latency", func() {
			config := table.Config()
			Expect(config.AddLatency).To(Equal(uint64(1)))
			Expect(config.SubLatency).To(Equal(uint64(1)))
		})

		It("should have correct multiply latency", func() {
			Expect(table.Config().MultiplyLatency).To(Equal(uint64(2)))
		})

		It("should have correct load and store latency", func() {
			config := table.Config()
			Expect(config.LoadLatency).To(Equal(uint64(3)))
			Expect(config.StoreLatency).To(Equal(uint64(3)))
		})
	})

	Describe("Instruction Latencies", func() {
		It("should return 1 cycle for +", func() {
			Expect(table.GetLatency(mustParse("r3,r0,r1,+"))).To(Equal(uint64(1)))
		})

		It("should return 1 cycle for -", func() {
			Expect(table.GetLatency(mustParse("r3,r0,r1,-"))).To(Equal(uint64(1)))
		})

		It("should return 2 cycles for *", func() {
			Expect(table.GetLatency(mustParse("r3,r0,r1,*"))).To(Equal(uint64(2)))
		})

		It("should return 3 cycles for Load and Store", func() {
			Expect(table.GetLatency(mustParse("r3,r0,r1,Load"))).To(Equal(uint64(3)))
			Expect(table.GetLatency(mustParse("r3,r0,r1,Store"))).To(Equal(uint64(3)))
		})

		It("should return 1 cycle for nil instruction", func() {
			Expect(table.GetLatency(nil)).To(Equal(uint64(1)))
		})

		It("should agree with the parser's default latencies", func() {
			for _, op := range []insts.Op{
				insts.OpAdd, insts.OpSub, insts.OpMul, insts.OpLoad, insts.OpStore,
			} {
				Expect(table.GetOpLatency(op)).To(Equal(op.DefaultLatency()))
			}
		})
	})

	Describe("Memory Operation Detection", func() {
		It("should identify Load and Store as memory ops", func() {
			Expect(table.IsMemoryOp(mustParse("r3,r0,r1,Load"))).To(BeTrue())
			Expect(table.IsMemoryOp(mustParse("r3,r0,r1,Store"))).To(BeTrue())
		})

		It("should not identify arithmetic as memory op", func() {
			Expect(table.IsMemoryOp(mustParse("r3,r0,r1,*"))).To(BeFalse())
			Expect(table.IsMemoryOp(nil)).To(BeFalse())
		})
	})

	Describe("Custom Configuration", func() {
		It("should use custom latency values", func() {
			config := &latency.TimingConfig{
				AddLatency:      2,
				SubLatency:      2,
				MultiplyLatency: 4,
				LoadLatency:     8,
				StoreLatency:    5,
			}
			customTable := latency.NewTableWithConfig(config)

			Expect(customTable.GetLatency(mustParse("r3,r0,r1,+"))).To(Equal(uint64(2)))
			Expect(customTable.GetLatency(mustParse("r3,r0,r1,*"))).To(Equal(uint64(4)))
			Expect(customTable.GetLatency(mustParse("r3,r0,r1,Load"))).To(Equal(uint64(8)))
			Expect(customTable.GetLatency(mustParse("r3,r0,r1,Store"))).To(Equal(uint64(5)))
		})

		It("should stamp instructions when used as the parser latency source", func() {
			config := latency.DefaultTimingConfig()
			config.MultiplyLatency = 6
			parser = insts.NewParser(
				insts.WithLatencySource(latency.NewTableWithConfig(config)))

			Expect(mustParse("r3,r0,r1,*").Latency).To(Equal(uint64(6)))
		})
	})
})

var _ = Describe("TimingConfig", func() {
	Describe("Default Config", func() {
		It("should create valid default config", func() {
			config := latency.DefaultTimingConfig()
			Expect(config.Validate()).To(Succeed())
		})
	})

	Describe("Validation", func() {
		It("should reject zero add latency", func() {
			config := latency.DefaultTimingConfig()
			config.AddLatency = 0
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should reject zero sub latency", func() {
			config := latency.DefaultTimingConfig()
			config.SubLatency = 0
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should reject zero multiply latency", func() {
			config := latency.DefaultTimingConfig()
			config.MultiplyLatency = 0
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should reject zero load latency", func() {
			config := latency.DefaultTimingConfig()
			config.LoadLatency = 0
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should reject zero store latency", func() {
			config := latency.DefaultTimingConfig()
			config.StoreLatency = 0
			Expect(config.Validate()).To(HaveOccurred())
		})
	})

	Describe("Clone", func() {
		It("should create independent copy", func() {
			original := latency.DefaultTimingConfig()
			clone := original.Clone()

			clone.AddLatency = 100

			Expect(original.AddLatency).To(Equal(uint64(1)))
			Expect(clone.AddLatency).To(Equal(uint64(100)))
		})
	})

	Describe("File Operations", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "latency-test")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			_ = os.RemoveAll(tempDir)
		})

		It("should save and load config", func() {
			original := latency.DefaultTimingConfig()
			original.AddLatency = 5
			original.LoadLatency = 10

			path := filepath.Join(tempDir, "timing.json")
			Expect(original.SaveConfig(path)).To(Succeed())

			loaded, err := latency.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.AddLatency).To(Equal(uint64(5)))
			Expect(loaded.LoadLatency).To(Equal(uint64(10)))
		})

		It("should keep defaults for fields missing from the file", func() {
			path := filepath.Join(tempDir, "partial.json")
			err := os.WriteFile(path, []byte(`{"multiply_latency": 4}`), 0644)
			Expect(err).NotTo(HaveOccurred())

			loaded, err := latency.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.MultiplyLatency).To(Equal(uint64(4)))
			Expect(loaded.StoreLatency).To(Equal(uint64(3)))
		})

		It("should return error for non-existent file", func() {
			_, err := latency.LoadConfig("/nonexistent/path/timing.json")
			Expect(err).To(HaveOccurred())
		})

		It("should return error for invalid JSON", func() {
			path := filepath.Join(tempDir, "invalid.json")
			err := os.WriteFile(path, []byte("not valid json"), 0644)
			Expect(err).NotTo(HaveOccurred())

			_, err = latency.LoadConfig(path)
			Expect(err).To(HaveOccurred())
		})
	})
})

package benchmarks

// GetMicrobenchmarks returns the standard set of scheduling
// microbenchmarks. Each one stresses a single hazard pattern.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		independentOps(),
		dependencyChain(),
		mixedLatency(),
		writeAfterRead(),
		writeAfterWrite(),
		memorySequence(),
		falseDependencies(),
		renamedDependencies(),
	}
}

// GetCoreBenchmarks returns a minimal set for quick validation.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		independentOps(),
		dependencyChain(),
		falseDependencies(),
	}
}

// 1. Independent ops - every instruction can issue as soon as a slot is free
func independentOps() Benchmark {
	return Benchmark{
		Name:        "independent_ops",
		Description: "8 independent adds - measures issue width",
		Program: BuildProgram(
			"r2,r0,r1,+",
			"r3,r0,r1,+",
			"r4,r0,r1,-",
			"r5,r0,r1,+",
			"r6,r0,r1,-",
			"r7,r0,r1,+",
			"r8,r0,r1,+",
			"r9,r0,r1,-",
		),
	}
}

// 2. Dependency chain - each instruction reads the previous result
func dependencyChain() Benchmark {
	return Benchmark{
		Name:        "dependency_chain",
		Description: "6 chained adds - RAW hazards serialize every policy",
		Program: BuildProgram(
			"r2,r0,r1,+",
			"r3,r2,r1,+",
			"r4,r3,r1,+",
			"r5,r4,r1,+",
			"r6,r5,r1,+",
			"r7,r6,r1,+",
		),
	}
}

// 3. Mixed latency - long operations followed by short independent ones
func mixedLatency() Benchmark {
	return Benchmark{
		Name:        "mixed_latency",
		Description: "multiplies and loads interleaved with dependent and independent adds",
		Program: BuildProgram(
			"r3,r0,r1,*",
			"r4,r3,r2,+",
			"r5,r0,r1,+",
			"r6,r0,r2,Load",
			"r7,r6,r1,+",
			"r8,r1,r2,-",
			"r9,r8,r0,*",
			"r10,r0,r1,+",
		),
	}
}

// 4. Write after read - later instructions overwrite registers still read
func writeAfterRead() Benchmark {
	return Benchmark{
		Name:        "write_after_read",
		Description: "writers of registers that slow readers still hold",
		Program: BuildProgram(
			"r3,r0,r1,*",
			"r0,r4,r5,+",
			"r6,r1,r2,Load",
			"r1,r4,r5,+",
			"r2,r4,r5,-",
		),
	}
}

// 5. Write after write - repeated writes to the same register
func writeAfterWrite() Benchmark {
	return Benchmark{
		Name:        "write_after_write",
		Description: "repeated writes to r3 with different latencies",
		Program: BuildProgram(
			"r3,r0,r1,Load",
			"r3,r0,r2,+",
			"r4,r0,r1,+",
			"r3,r1,r2,*",
			"r5,r0,r1,+",
		),
	}
}

// 6. Memory sequence - loads and stores
func memorySequence() Benchmark {
	return Benchmark{
		Name:        "memory_sequence",
		Description: "loads feeding stores - measures 3-cycle memory latency",
		Program: BuildProgram(
			"r2,r0,r1,Load",
			"r3,r0,r1,Load",
			"r4,r2,r3,+",
			"r5,r4,r0,Store",
			"r6,r0,r1,Load",
			"r7,r6,r0,Store",
		),
	}
}

// 7. False dependencies - WAR and WAW on a small register set
func falseDependencies() Benchmark {
	return Benchmark{
		Name:        "false_dependencies",
		Description: "reuse of r3 and r4 creates WAR and WAW hazards",
		Program: BuildProgram(
			"r3,r0,r1,*",
			"r4,r3,r2,+",
			"r3,r0,r2,+",
			"r4,r3,r1,-",
			"r3,r1,r2,*",
			"r4,r3,r0,+",
		),
	}
}

// 8. Renamed dependencies - false_dependencies with fresh destinations
func renamedDependencies() Benchmark {
	return Benchmark{
		Name:        "renamed_dependencies",
		Description: "false_dependencies after register renaming - only RAW remains",
		Program: BuildProgram(
			"r3,r0,r1,*",
			"r4,r3,r2,+",
			"r5,r0,r2,+",
			"r6,r5,r1,-",
			"r7,r1,r2,*",
			"r8,r7,r0,+",
		),
	}
}

package counter

import (
	"sync"
	"testing"

	"github.com/tkoenig/jarusage/internal/artifact"
)

func testArtifacts() []artifact.Artifact {
	return []artifact.Artifact{
		{Group: "org.apache.commons", Name: "commons-lang3", Version: "3.14.0"},
		{Group: "com.google.guava", Name: "guava", Version: "33.0.0-jre"},
	}
}

func TestNewStartsAtZero(t *testing.T) {
	c := New(testArtifacts())

	snap := c.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot has %d entries, want 2", len(snap))
	}
	if got := snap["org.apache.commons:commons-lang3:3.14.0"]; got != 0 {
		t.Errorf("count = %d, want 0", got)
	}
	if got := c.Total(); got != 0 {
		t.Errorf("Total() = %d, want 0", got)
	}
}

func TestIncIgnoresUnknownCoordinate(t *testing.T) {
	c := New(testArtifacts())
	c.Inc("io.netty:netty-all:4.1.100.Final")

	if got := c.Total(); got != 0 {
		t.Errorf("Total() = %d, want 0 after unknown increment", got)
	}
	if _, ok := c.Snapshot()["io.netty:netty-all:4.1.100.Final"]; ok {
		t.Error("unknown coordinate appeared in snapshot")
	}
}

func TestConcurrentIncrements(t *testing.T) {
	const (
		workers = 16
		perUnit = 1000
	)
	c := New(testArtifacts())

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perUnit; j++ {
				c.Inc("org.apache.commons:commons-lang3:3.14.0")
			}
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	if got := snap["org.apache.commons:commons-lang3:3.14.0"]; got != workers*perUnit {
		t.Errorf("count = %d, want %d", got, workers*perUnit)
	}
	if got := snap["com.google.guava:guava:33.0.0-jre"]; got != 0 {
		t.Errorf("untouched counter = %d, want 0", got)
	}
}

func TestSnapshotAndTotal(t *testing.T) {
	c := New(testArtifacts())
	c.Inc("org.apache.commons:commons-lang3:3.14.0")
	c.Inc("org.apache.commons:commons-lang3:3.14.0")
	c.Inc("com.google.guava:guava:33.0.0-jre")

	snap := c.Snapshot()
	if snap["org.apache.commons:commons-lang3:3.14.0"] != 2 {
		t.Errorf("snapshot lang3 = %d, want 2", snap["org.apache.commons:commons-lang3:3.14.0"])
	}
	if snap["com.google.guava:guava:33.0.0-jre"] != 1 {
		t.Errorf("snapshot guava = %d, want 1", snap["com.google.guava:guava:33.0.0-jre"])
	}
	if got := c.Total(); got != 3 {
		t.Errorf("Total() = %d, want 3", got)
	}
}

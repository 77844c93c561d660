package analyzer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkoenig/jarusage/internal/artifact"
	"github.com/tkoenig/jarusage/internal/classfile"
	"github.com/tkoenig/jarusage/internal/models"
	"github.com/tkoenig/jarusage/internal/testutil"
)

func jarArtifact(t *testing.T, coord string, entries ...string) artifact.Artifact {
	t.Helper()
	a, err := artifact.ParseCoordinate(coord)
	require.NoError(t, err)
	a.ArchivePath = filepath.Join(t.TempDir(), a.Name+".jar")
	testutil.WriteJar(t, a.ArchivePath, entries...)
	return a
}

func usageFor(t *testing.T, result *models.UsageAnalysis, coord string) models.ArtifactUsage {
	t.Helper()
	for _, u := range result.Artifacts {
		if u.Coordinate == coord {
			return u
		}
	}
	t.Fatalf("artifact %s not in result", coord)
	return models.ArtifactUsage{}
}

func TestAnalyzeCountsDependencyReferencesOnly(t *testing.T) {
	lang3 := jarArtifact(t, "org.apache.commons:commons-lang3:3.14.0",
		"org/apache/commons/lang3/StringUtils.class")

	b := testutil.NewClassBuilder("com/example/App")
	dep := b.Methodref("org/apache/commons/lang3/StringUtils", "isEmpty", "(Ljava/lang/CharSequence;)Z")
	jdk := b.Fieldref("java/lang/System", "out", "Ljava/io/PrintStream;")
	b.AddMethod("run", "()V", testutil.Code(
		testutil.InsIdx(classfile.OpInvokestatic, dep),
		testutil.InsIdx(classfile.OpGetstatic, jdk),
		testutil.Ins(0xb1),
	))

	classesDir := t.TempDir()
	testutil.WriteClassFile(t, classesDir, "com/example/App.class", b.Bytes())

	result, err := New().Analyze(context.Background(), []artifact.Artifact{lang3}, classesDir)
	require.NoError(t, err)

	assert.EqualValues(t, 1, usageFor(t, result, lang3.Coordinate()).References)
	assert.EqualValues(t, 1, result.Summary.TotalReferences)
	assert.Equal(t, 1, result.Summary.ArtifactsUsed)
	assert.Equal(t, 1, result.Summary.ClassFilesScanned)
	assert.Equal(t, 0, result.Summary.ClassFilesFailed)
	assert.Equal(t, 1, result.Summary.ClassesIndexed)
}

func TestAnalyzeCountsEveryReferencingInstruction(t *testing.T) {
	guava := jarArtifact(t, "com.google.guava:guava:33.0.0-jre",
		"com/google/common/collect/ImmutableList.class")

	b := testutil.NewClassBuilder("com/example/App")
	of := b.Methodref("com/google/common/collect/ImmutableList", "of", "()Lcom/google/common/collect/ImmutableList;")
	size := b.Methodref("com/google/common/collect/ImmutableList", "size", "()I")
	cls := b.AddClass("com/google/common/collect/ImmutableList")
	b.AddMethod("run", "()V", testutil.Code(
		testutil.InsIdx(classfile.OpInvokestatic, of),
		testutil.InsIdx(classfile.OpInvokevirtual, size),
		testutil.InsIdx(classfile.OpNew, cls),
		testutil.Ins(0xb1),
	))

	classesDir := t.TempDir()
	testutil.WriteClassFile(t, classesDir, "com/example/App.class", b.Bytes())

	result, err := New().Analyze(context.Background(), []artifact.Artifact{guava}, classesDir)
	require.NoError(t, err)

	assert.EqualValues(t, 3, usageFor(t, result, guava.Coordinate()).References)
}

func TestAnalyzeMissingClassesDir(t *testing.T) {
	lang3 := jarArtifact(t, "org.apache.commons:commons-lang3:3.14.0",
		"org/apache/commons/lang3/StringUtils.class")

	var warned []string
	a := New(WithWarnFunc(func(format string, args ...any) {
		warned = append(warned, fmt.Sprintf(format, args...))
	}))

	result, err := a.Analyze(context.Background(),
		[]artifact.Artifact{lang3},
		filepath.Join(t.TempDir(), "target", "classes"))
	require.NoError(t, err)

	assert.EqualValues(t, 0, usageFor(t, result, lang3.Coordinate()).References)
	assert.Equal(t, 0, result.Summary.ClassFilesScanned)
	assert.Equal(t, 0, result.Summary.ArtifactsUsed)
	require.Len(t, warned, 1)
	assert.Contains(t, warned[0], "have you compiled")
}

func TestAnalyzeCollisionCreditsFirstArtifact(t *testing.T) {
	first := jarArtifact(t, "com.example:lib-a:1.0", "com/shared/Util.class")
	second := jarArtifact(t, "com.example:lib-b:1.0", "com/shared/Util.class")

	b := testutil.NewClassBuilder("com/example/App")
	ref := b.Methodref("com/shared/Util", "help", "()V")
	b.AddMethod("run", "()V", testutil.Code(
		testutil.InsIdx(classfile.OpInvokestatic, ref),
		testutil.Ins(0xb1),
	))

	classesDir := t.TempDir()
	testutil.WriteClassFile(t, classesDir, "com/example/App.class", b.Bytes())

	result, err := New().Analyze(context.Background(),
		[]artifact.Artifact{first, second}, classesDir)
	require.NoError(t, err)

	assert.EqualValues(t, 1, usageFor(t, result, "com.example:lib-a:1.0").References)
	assert.EqualValues(t, 0, usageFor(t, result, "com.example:lib-b:1.0").References)
	assert.Equal(t, 1, result.Summary.IndexCollisions)
}

func TestAnalyzeIgnoresArrayDescriptors(t *testing.T) {
	lang3 := jarArtifact(t, "org.apache.commons:commons-lang3:3.14.0",
		"org/apache/commons/lang3/StringUtils.class")

	b := testutil.NewClassBuilder("com/example/App")
	arr := b.AddClass("[Lorg/apache/commons/lang3/StringUtils;")
	b.AddMethod("run", "()V", testutil.Code(
		testutil.InsIdx(classfile.OpCheckcast, arr),
		testutil.Ins(0xb1),
	))

	classesDir := t.TempDir()
	testutil.WriteClassFile(t, classesDir, "com/example/App.class", b.Bytes())

	result, err := New().Analyze(context.Background(), []artifact.Artifact{lang3}, classesDir)
	require.NoError(t, err)

	assert.EqualValues(t, 0, result.Summary.TotalReferences)
}

func TestAnalyzeIsolatesCorruptUnits(t *testing.T) {
	lang3 := jarArtifact(t, "org.apache.commons:commons-lang3:3.14.0",
		"org/apache/commons/lang3/StringUtils.class")

	good := testutil.NewClassBuilder("com/example/Good")
	ref := good.Methodref("org/apache/commons/lang3/StringUtils", "isEmpty", "(Ljava/lang/CharSequence;)Z")
	good.AddMethod("run", "()V", testutil.Code(
		testutil.InsIdx(classfile.OpInvokestatic, ref),
		testutil.Ins(0xb1),
	))

	classesDir := t.TempDir()
	testutil.WriteClassFile(t, classesDir, "com/example/Good.class", good.Bytes())
	testutil.WriteClassFile(t, classesDir, "com/example/Bad.class", []byte("not a class file"))

	var warned []string
	a := New(WithWarnFunc(func(format string, args ...any) {
		warned = append(warned, fmt.Sprintf(format, args...))
	}))

	result, err := a.Analyze(context.Background(), []artifact.Artifact{lang3}, classesDir)
	require.NoError(t, err)

	assert.EqualValues(t, 1, usageFor(t, result, lang3.Coordinate()).References)
	assert.Equal(t, 1, result.Summary.ClassFilesScanned)
	assert.Equal(t, 1, result.Summary.ClassFilesFailed)
	require.Len(t, warned, 1)
	assert.Contains(t, warned[0], "Bad.class")
}

func TestAnalyzeWarnsOnSkippedArchive(t *testing.T) {
	gone := artifact.Artifact{
		Group: "com.example", Name: "gone", Version: "1.0",
		ArchivePath: filepath.Join(t.TempDir(), "gone.jar"),
	}

	var warned []string
	a := New(WithWarnFunc(func(format string, args ...any) {
		warned = append(warned, fmt.Sprintf(format, args...))
	}))

	result, err := a.Analyze(context.Background(), []artifact.Artifact{gone}, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Summary.ArchivesSkipped)
	assert.EqualValues(t, 0, result.Summary.TotalReferences)
	require.NotEmpty(t, warned)
	assert.Contains(t, warned[0], "com.example:gone:1.0")
}

// The per-artifact counts and the report order must not depend on how the
// scan work is split across workers.
func TestAnalyzeWorkerCountDoesNotChangeResult(t *testing.T) {
	lang3 := jarArtifact(t, "org.apache.commons:commons-lang3:3.14.0",
		"org/apache/commons/lang3/StringUtils.class")
	guava := jarArtifact(t, "com.google.guava:guava:33.0.0-jre",
		"com/google/common/collect/ImmutableList.class")
	deps := []artifact.Artifact{lang3, guava}

	classesDir := t.TempDir()
	for i := 0; i < 12; i++ {
		b := testutil.NewClassBuilder(fmt.Sprintf("com/example/C%d", i))
		su := b.Methodref("org/apache/commons/lang3/StringUtils", "isEmpty", "(Ljava/lang/CharSequence;)Z")
		il := b.Methodref("com/google/common/collect/ImmutableList", "of", "()Lcom/google/common/collect/ImmutableList;")
		code := []byte{}
		code = append(code, testutil.InsIdx(classfile.OpInvokestatic, su)...)
		if i%2 == 0 {
			code = append(code, testutil.InsIdx(classfile.OpInvokestatic, il)...)
		}
		code = append(code, testutil.Ins(0xb1)...)
		b.AddMethod("run", "()V", code)
		testutil.WriteClassFile(t, classesDir, fmt.Sprintf("com/example/C%d.class", i), b.Bytes())
	}

	serial, err := New(WithWorkers(1)).Analyze(context.Background(), deps, classesDir)
	require.NoError(t, err)
	parallel, err := New(WithWorkers(8)).Analyze(context.Background(), deps, classesDir)
	require.NoError(t, err)

	assert.Equal(t, serial.Artifacts, parallel.Artifacts)
	assert.Equal(t, serial.Summary, parallel.Summary)
	assert.EqualValues(t, 12, usageFor(t, serial, lang3.Coordinate()).References)
	assert.EqualValues(t, 6, usageFor(t, serial, guava.Coordinate()).References)
}

func TestAnalyzeCancelledContext(t *testing.T) {
	lang3 := jarArtifact(t, "org.apache.commons:commons-lang3:3.14.0",
		"org/apache/commons/lang3/StringUtils.class")

	b := testutil.NewClassBuilder("com/example/App")
	b.AddMethod("run", "()V", testutil.Ins(0xb1))
	classesDir := t.TempDir()
	testutil.WriteClassFile(t, classesDir, "com/example/App.class", b.Bytes())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Analyze(ctx, []artifact.Artifact{lang3}, classesDir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeRespectsExcludePatterns(t *testing.T) {
	lang3 := jarArtifact(t, "org.apache.commons:commons-lang3:3.14.0",
		"org/apache/commons/lang3/StringUtils.class")

	b := testutil.NewClassBuilder("com/example/AppTest")
	ref := b.Methodref("org/apache/commons/lang3/StringUtils", "isEmpty", "(Ljava/lang/CharSequence;)Z")
	b.AddMethod("run", "()V", testutil.Code(
		testutil.InsIdx(classfile.OpInvokestatic, ref),
		testutil.Ins(0xb1),
	))

	classesDir := t.TempDir()
	testutil.WriteClassFile(t, classesDir, "com/example/AppTest.class", b.Bytes())

	a := New(WithExcludePatterns([]string{"*Test.class"}))
	result, err := a.Analyze(context.Background(), []artifact.Artifact{lang3}, classesDir)
	require.NoError(t, err)

	assert.EqualValues(t, 0, result.Summary.TotalReferences)
	assert.Equal(t, 0, result.Summary.ClassFilesScanned)
}

func TestAnalyzeEmptyClassesDirIsNotMissing(t *testing.T) {
	lang3 := jarArtifact(t, "org.apache.commons:commons-lang3:3.14.0",
		"org/apache/commons/lang3/StringUtils.class")

	classesDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(classesDir, "com"), 0o755))

	var warned []string
	a := New(WithWarnFunc(func(format string, args ...any) {
		warned = append(warned, fmt.Sprintf(format, args...))
	}))

	result, err := a.Analyze(context.Background(), []artifact.Artifact{lang3}, classesDir)
	require.NoError(t, err)

	assert.EqualValues(t, 0, result.Summary.TotalReferences)
	assert.Empty(t, warned)
}

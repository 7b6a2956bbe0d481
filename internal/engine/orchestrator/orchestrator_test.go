package orchestrator_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/adapters/solver"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/strata/internal/core/ports/mocks"
	"go.trai.ch/strata/internal/engine/orchestrator"
	"go.uber.org/mock/gomock"
)

// quietTracer returns a tracer mock accepting any span activity.
func quietTracer(ctrl *gomock.Controller) *mocks.MockTracer {
	span := mocks.NewMockSpan(ctrl)
	span.EXPECT().End().AnyTimes()
	span.EXPECT().RecordError(gomock.Any()).AnyTimes()
	span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()

	tracer := mocks.NewMockTracer(ctrl)
	tracer.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			return ctx, span
		},
	).AnyTimes()
	tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any()).AnyTimes()
	return tracer
}

func entry(name, ver string, deps ...string) domain.IndexEntry {
	return domain.IndexEntry{
		Name:    name,
		Version: ver,
		Build:   "h0_0",
		Depends: deps,
		SHA256:  name + ver,
		URL:     "https://conda.example/main/" + name + "-" + ver + ".conda",
	}
}

func workspace(t *testing.T, platforms []domain.Platform, deps ...domain.DependencySpec) *domain.Workspace {
	t.Helper()
	m := domain.NewManifest("/work")
	m.Name = "demo"
	m.Channels = []string{"https://conda.example/main"}
	m.IndexURLs = []string{"https://pypi.example/simple"}
	m.Platforms = platforms
	m.DefaultFeature().Dependencies = deps
	ws, err := domain.BuildWorkspace(m)
	require.NoError(t, err)
	return ws
}

func spec(t *testing.T, eco domain.Ecosystem, name, constraint string) domain.DependencySpec {
	t.Helper()
	s, err := domain.NewDependencySpec(eco, name, constraint, "", "")
	require.NoError(t, err)
	return s
}

func record(eco domain.Ecosystem, name, ver string) domain.ResolvedRecord {
	return domain.ResolvedRecord{
		Ecosystem: eco,
		Name:      domain.NewInternedString(name),
		Version:   domain.NewInternedString(ver),
		Checksum:  "sha256:" + name + ver,
	}
}

func TestSolve_SingleCell(t *testing.T) {
	ctrl := gomock.NewController(t)
	index := mocks.NewMockIndexProvider(ctrl)
	index.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req domain.IndexRequest) (*domain.Index, error) {
			assert.Equal(t, domain.EcosystemConda, req.Ecosystem)
			assert.Equal(t, []string{"https://conda.example/main"}, req.Sources)
			return domain.NewIndex(req.Ecosystem, req.Platform, []domain.IndexEntry{
				entry("foo", "1.2"),
				entry("foo", "1.0"),
				entry("foo", "0.9"),
			}), nil
		},
	)

	ws := workspace(t, []domain.Platform{domain.PlatformLinux64}, spec(t, domain.EcosystemConda, "foo", ">=1.0"))
	o := orchestrator.New(index, quietTracer(ctrl), solver.All())

	out, err := o.Solve(context.Background(), ws, orchestrator.Request{})
	require.NoError(t, err)
	require.NoError(t, out.Err())
	require.Len(t, out.Solved, 1)

	cell := out.Solved[0]
	assert.Equal(t, domain.CellKey{Environment: "default", Platform: domain.PlatformLinux64}, cell.Key)
	assert.Equal(t, ws.Cells[0].Fingerprint, cell.Fingerprint)
	require.Len(t, cell.Records, 1)
	assert.Equal(t, domain.EcosystemConda, cell.Records[0].Ecosystem)
	assert.Equal(t, "foo", cell.Records[0].Name.String())
	assert.Equal(t, "1.2", cell.Records[0].Version.String())
}

func TestSolve_FailedCellDoesNotStopSiblings(t *testing.T) {
	ctrl := gomock.NewController(t)
	index := mocks.NewMockIndexProvider(ctrl)
	index.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req domain.IndexRequest) (*domain.Index, error) {
			if req.Platform == domain.PlatformOSXArm64 {
				return domain.NewIndex(req.Ecosystem, req.Platform, nil), nil
			}
			return domain.NewIndex(req.Ecosystem, req.Platform, []domain.IndexEntry{entry("foo", "1.2")}), nil
		},
	).Times(2)

	ws := workspace(t,
		[]domain.Platform{domain.PlatformLinux64, domain.PlatformOSXArm64},
		spec(t, domain.EcosystemConda, "foo", ">=1.0"),
	)
	o := orchestrator.New(index, quietTracer(ctrl), solver.All())

	out, err := o.Solve(context.Background(), ws, orchestrator.Request{})
	require.NoError(t, err)

	require.Len(t, out.Solved, 1)
	assert.Equal(t, domain.PlatformLinux64, out.Solved[0].Key.Platform)
	require.Len(t, out.Failures, 1)
	assert.Equal(t, domain.PlatformOSXArm64, out.Failures[0].Key.Platform)

	failure := out.Err()
	require.Error(t, failure)
	require.ErrorIs(t, failure, domain.ErrSolveFailed)
	var sf *domain.SolveFailure
	require.ErrorAs(t, failure, &sf)
	assert.Equal(t, domain.EcosystemConda, sf.Ecosystem)
	assert.Contains(t, sf.Error(), "foo")
}

func TestSolve_IndexFailureIsReportedPerCell(t *testing.T) {
	ctrl := gomock.NewController(t)
	index := mocks.NewMockIndexProvider(ctrl)
	index.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(nil, errors.Join(domain.ErrIndexFetch, errors.New("503")))

	ws := workspace(t, []domain.Platform{domain.PlatformLinux64}, spec(t, domain.EcosystemConda, "foo", ""))
	o := orchestrator.New(index, quietTracer(ctrl), solver.All())

	out, err := o.Solve(context.Background(), ws, orchestrator.Request{})
	require.NoError(t, err)
	require.Empty(t, out.Solved)
	require.Len(t, out.Failures, 1)
	assert.ErrorIs(t, out.Failures[0], domain.ErrIndexFetch)
	assert.ErrorIs(t, out.Failures[0], domain.ErrSolveFailed)
}

func TestSolve_PyPIReceivesCondaRecords(t *testing.T) {
	ctrl := gomock.NewController(t)
	index := mocks.NewMockIndexProvider(ctrl)
	index.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req domain.IndexRequest) (*domain.Index, error) {
			if req.Ecosystem == domain.EcosystemPyPI {
				assert.Equal(t, []string{"https://pypi.example/simple"}, req.Sources)
				return domain.NewIndex(req.Ecosystem, req.Platform, nil), nil
			}
			return domain.NewIndex(req.Ecosystem, req.Platform, []domain.IndexEntry{entry("python", "3.12.1")}), nil
		},
	).Times(2)

	pypi := mocks.NewMockSolver(ctrl)
	pypi.EXPECT().Ecosystem().Return(domain.EcosystemPyPI).AnyTimes()
	pypi.EXPECT().Solve(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, task ports.SolveTask) (domain.ResolvedGraph, error) {
			require.Len(t, task.Context, 1)
			assert.Equal(t, "python", task.Context[0].Name.String())
			require.Len(t, task.Specs, 1)
			assert.Equal(t, "requests", task.Specs[0].Name)
			return domain.ResolvedGraph{Records: []domain.ResolvedRecord{
				record(domain.EcosystemPyPI, "requests", "2.32.3"),
			}}, nil
		},
	)

	ws := workspace(t, []domain.Platform{domain.PlatformLinux64},
		spec(t, domain.EcosystemConda, "python", "3.12.*"),
		spec(t, domain.EcosystemPyPI, "requests", ">=2"),
	)
	o := orchestrator.New(index, quietTracer(ctrl), []ports.Solver{solver.NewConda(), pypi})

	out, err := o.Solve(context.Background(), ws, orchestrator.Request{})
	require.NoError(t, err)
	require.NoError(t, out.Err())
	require.Len(t, out.Solved, 1)

	recs := out.Solved[0].Records
	require.Len(t, recs, 2)
	assert.Equal(t, "python", recs[0].Name.String())
	assert.Equal(t, "requests", recs[1].Name.String())
}

func TestSolve_PassesPreviousRecordsAsPreferences(t *testing.T) {
	ctrl := gomock.NewController(t)
	index := mocks.NewMockIndexProvider(ctrl)
	index.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(domain.NewIndex(domain.EcosystemConda, domain.PlatformLinux64, nil), nil)

	key := domain.CellKey{Environment: "default", Platform: domain.PlatformLinux64}
	previous := &domain.LockDocument{
		Version: domain.LockFormatVersion,
		Cells: []domain.LockedCell{{
			Key:     key,
			Records: []domain.ResolvedRecord{record(domain.EcosystemConda, "foo", "1.0")},
		}},
	}

	conda := mocks.NewMockSolver(ctrl)
	conda.EXPECT().Ecosystem().Return(domain.EcosystemConda).AnyTimes()
	conda.EXPECT().Solve(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, task ports.SolveTask) (domain.ResolvedGraph, error) {
			assert.Equal(t, previous.Cells[0].Records, task.Locked)
			assert.NotEmpty(t, task.Virtual)
			return domain.ResolvedGraph{Records: task.Locked}, nil
		},
	)

	ws := workspace(t, []domain.Platform{domain.PlatformLinux64}, spec(t, domain.EcosystemConda, "foo", ""))
	o := orchestrator.New(index, quietTracer(ctrl), []ports.Solver{conda})

	out, err := o.Solve(context.Background(), ws, orchestrator.Request{Previous: previous})
	require.NoError(t, err)
	require.Len(t, out.Solved, 1)
	assert.Equal(t, "1.0", out.Solved[0].Records[0].Version.String())
}

func TestSolve_CandidateTieBreak(t *testing.T) {
	ctrl := gomock.NewController(t)
	index := mocks.NewMockIndexProvider(ctrl)
	index.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(domain.NewIndex(domain.EcosystemConda, domain.PlatformLinux64, nil), nil).Times(3)

	conda := mocks.NewMockCandidateSolver(ctrl)
	conda.EXPECT().Ecosystem().Return(domain.EcosystemConda).AnyTimes()
	later := domain.ResolvedGraph{Records: []domain.ResolvedRecord{
		record(domain.EcosystemConda, "zlib", "1.3"),
		record(domain.EcosystemConda, "foo", "1.2"),
	}}
	earlier := domain.ResolvedGraph{Records: []domain.ResolvedRecord{
		record(domain.EcosystemConda, "foo", "1.1"),
		record(domain.EcosystemConda, "zlib", "1.3"),
	}}
	conda.EXPECT().SolveCandidates(gomock.Any(), gomock.Any()).Return([]domain.ResolvedGraph{later, earlier}, nil)
	conda.EXPECT().SolveCandidates(gomock.Any(), gomock.Any()).Return([]domain.ResolvedGraph{earlier, later}, nil)
	conda.EXPECT().SolveCandidates(gomock.Any(), gomock.Any()).Return(nil, nil)

	ws := workspace(t, []domain.Platform{domain.PlatformLinux64}, spec(t, domain.EcosystemConda, "foo", ""))
	o := orchestrator.New(index, quietTracer(ctrl), []ports.Solver{conda})

	first, err := o.Solve(context.Background(), ws, orchestrator.Request{})
	require.NoError(t, err)
	second, err := o.Solve(context.Background(), ws, orchestrator.Request{})
	require.NoError(t, err)

	require.Len(t, first.Solved, 1)
	assert.Equal(t, first.Solved, second.Solved)
	assert.Equal(t, "foo", first.Solved[0].Records[0].Name.String())
	assert.Equal(t, "1.1", first.Solved[0].Records[0].Version.String())

	empty, err := o.Solve(context.Background(), ws, orchestrator.Request{})
	require.NoError(t, err)
	require.Len(t, empty.Failures, 1)
	assert.ErrorIs(t, empty.Failures[0], domain.ErrNoSolverCandidates)
}

func TestSolve_RejectsDuplicateNames(t *testing.T) {
	ctrl := gomock.NewController(t)
	index := mocks.NewMockIndexProvider(ctrl)
	index.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(domain.NewIndex(domain.EcosystemConda, domain.PlatformLinux64, nil), nil)

	conda := mocks.NewMockSolver(ctrl)
	conda.EXPECT().Ecosystem().Return(domain.EcosystemConda).AnyTimes()
	conda.EXPECT().Solve(gomock.Any(), gomock.Any()).Return(domain.ResolvedGraph{Records: []domain.ResolvedRecord{
		record(domain.EcosystemConda, "foo", "1.1"),
		record(domain.EcosystemConda, "foo", "1.2"),
	}}, nil)

	ws := workspace(t, []domain.Platform{domain.PlatformLinux64}, spec(t, domain.EcosystemConda, "foo", ""))
	o := orchestrator.New(index, quietTracer(ctrl), []ports.Solver{conda})

	out, err := o.Solve(context.Background(), ws, orchestrator.Request{})
	require.NoError(t, err)
	require.Empty(t, out.Solved)
	require.Len(t, out.Failures, 1)
	assert.ErrorContains(t, out.Failures[0], "duplicate package in cell")
}

func TestSolve_CancellationDiscardsResults(t *testing.T) {
	ctrl := gomock.NewController(t)
	index := mocks.NewMockIndexProvider(ctrl)
	index.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(domain.NewIndex(domain.EcosystemConda, domain.PlatformLinux64, nil), nil).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conda := mocks.NewMockSolver(ctrl)
	conda.EXPECT().Ecosystem().Return(domain.EcosystemConda).AnyTimes()
	conda.EXPECT().Solve(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ ports.SolveTask) (domain.ResolvedGraph, error) {
			cancel()
			<-ctx.Done()
			return domain.ResolvedGraph{}, ctx.Err()
		},
	).MinTimes(1)

	ws := workspace(t,
		[]domain.Platform{domain.PlatformLinux64, domain.PlatformOSX64},
		spec(t, domain.EcosystemConda, "foo", ""),
	)
	o := orchestrator.New(index, quietTracer(ctrl), []ports.Solver{conda})

	out, err := o.Solve(ctx, ws, orchestrator.Request{Concurrency: 1})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, out)
}

func TestSolve_RespectsConcurrencyLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	index := mocks.NewMockIndexProvider(ctrl)
	index.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req domain.IndexRequest) (*domain.Index, error) {
			return domain.NewIndex(req.Ecosystem, req.Platform, nil), nil
		},
	).AnyTimes()

	var running, peak atomic.Int32
	conda := mocks.NewMockSolver(ctrl)
	conda.EXPECT().Ecosystem().Return(domain.EcosystemConda).AnyTimes()
	conda.EXPECT().Solve(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ ports.SolveTask) (domain.ResolvedGraph, error) {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			running.Add(-1)
			return domain.ResolvedGraph{}, nil
		},
	).Times(len(domain.SupportedPlatforms()))

	ws := workspace(t, domain.SupportedPlatforms(), spec(t, domain.EcosystemConda, "foo", ""))
	o := orchestrator.New(index, quietTracer(ctrl), []ports.Solver{conda})

	out, err := o.Solve(context.Background(), ws, orchestrator.Request{Concurrency: 2})
	require.NoError(t, err)
	assert.Len(t, out.Solved, len(domain.SupportedPlatforms()))
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestSolve_SelectsRequestedCells(t *testing.T) {
	ctrl := gomock.NewController(t)
	index := mocks.NewMockIndexProvider(ctrl)
	index.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req domain.IndexRequest) (*domain.Index, error) {
			assert.Equal(t, domain.PlatformOSXArm64, req.Platform)
			return domain.NewIndex(req.Ecosystem, req.Platform, []domain.IndexEntry{entry("foo", "1.0")}), nil
		},
	)

	ws := workspace(t,
		[]domain.Platform{domain.PlatformLinux64, domain.PlatformOSXArm64},
		spec(t, domain.EcosystemConda, "foo", ""),
	)
	o := orchestrator.New(index, quietTracer(ctrl), solver.All())

	key := domain.CellKey{Environment: "default", Platform: domain.PlatformOSXArm64}
	out, err := o.Solve(context.Background(), ws, orchestrator.Request{Cells: []domain.CellKey{key, key}})
	require.NoError(t, err)
	require.Len(t, out.Solved, 1)
	assert.Equal(t, key, out.Solved[0].Key)

	_, err = o.Solve(context.Background(), ws, orchestrator.Request{
		Cells: []domain.CellKey{{Environment: "nope", Platform: domain.PlatformLinux64}},
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "unknown environment")
}

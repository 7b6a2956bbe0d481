package differ_test

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/engine/differ"
)

func record(eco domain.Ecosystem, name, ver string, deps ...string) domain.ResolvedRecord {
	return domain.ResolvedRecord{
		Ecosystem: eco,
		Name:      domain.NewInternedString(name),
		Version:   domain.NewInternedString(ver),
		Checksum:  "sha256:" + name + "-" + ver,
		Depends:   domain.NewInternedStrings(deps),
	}
}

func conda(name, ver string, deps ...string) domain.ResolvedRecord {
	return record(domain.EcosystemConda, name, ver, deps...)
}

// apply simulates an installer replaying ops on prefix.
func apply(prefix *domain.PrefixRecord, ops []domain.Operation) *domain.PrefixRecord {
	out := &domain.PrefixRecord{Path: prefix.Path, Packages: slices.Clone(prefix.Packages)}
	for _, op := range ops {
		switch op.Kind {
		case domain.OpRemove:
			out.Packages = slices.DeleteFunc(out.Packages, func(p domain.InstalledPackage) bool {
				return p.Identity == op.Identity
			})
		case domain.OpInstall:
			out.Packages = append(out.Packages, domain.InstalledPackage{
				Identity:      op.Identity,
				Depends:       domain.Strings(op.Record.Depends),
				LinkedAgainst: op.Links,
			})
		case domain.OpRelink:
			pkg, ok := out.Lookup(op.Identity.Ecosystem, op.Identity.Name)
			if ok {
				pkg.LinkedAgainst = op.Links
			}
		}
	}
	return out
}

// installAll returns the prefix produced by installing records into an empty prefix.
func installAll(records []domain.ResolvedRecord) *domain.PrefixRecord {
	return apply(&domain.PrefixRecord{Path: "/env"}, differ.Diff(records, nil))
}

func kinds(ops []domain.Operation) []string {
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = op.String()
	}
	return out
}

func TestDiff_ReplacesChangedVersion(t *testing.T) {
	prefix := &domain.PrefixRecord{
		Path: "/env",
		Packages: []domain.InstalledPackage{
			{Identity: conda("foo", "1.1").Identity()},
		},
	}
	lock := []domain.ResolvedRecord{conda("foo", "1.2")}
	lock[0].Checksum = ""

	ops := differ.Diff(lock, prefix)
	require.Len(t, ops, 2)
	assert.Equal(t, domain.OpRemove, ops[0].Kind)
	assert.Equal(t, "1.1", ops[0].Identity.Version)
	assert.Equal(t, domain.OpInstall, ops[1].Kind)
	assert.Equal(t, "1.2", ops[1].Identity.Version)
	assert.Equal(t, []string{"remove foo@1.1", "install foo@1.2"}, kinds(ops))
}

func TestDiff_SameNameInBothEcosystems(t *testing.T) {
	condaFoo := conda("foo", "1.0")
	pypiFoo := record(domain.EcosystemPyPI, "foo", "1.0")

	t.Run("switches ecosystem", func(t *testing.T) {
		prefix := installAll([]domain.ResolvedRecord{pypiFoo})
		ops := differ.Diff([]domain.ResolvedRecord{condaFoo}, prefix)
		require.Len(t, ops, 2)
		assert.Equal(t, domain.OpRemove, ops[0].Kind)
		assert.Equal(t, domain.EcosystemPyPI, ops[0].Identity.Ecosystem)
		assert.Equal(t, domain.OpInstall, ops[1].Kind)
		assert.Equal(t, domain.EcosystemConda, ops[1].Identity.Ecosystem)
	})

	t.Run("removes only the stale ecosystem", func(t *testing.T) {
		prefix := installAll([]domain.ResolvedRecord{condaFoo})
		prefix.Packages = append(prefix.Packages, domain.InstalledPackage{Identity: pypiFoo.Identity()})

		ops := differ.Diff([]domain.ResolvedRecord{condaFoo}, prefix)
		require.Len(t, ops, 1)
		assert.Equal(t, domain.OpRemove, ops[0].Kind)
		assert.Equal(t, pypiFoo.Identity(), ops[0].Identity)
		assert.Nil(t, differ.Diff([]domain.ResolvedRecord{condaFoo}, apply(prefix, ops)))
	})
}

func TestDiff_ChecksumMismatchReinstalls(t *testing.T) {
	lock := []domain.ResolvedRecord{conda("foo", "1.2")}
	prefix := installAll(lock)
	prefix.Packages[0].Identity.Checksum = "sha256:other"

	assert.Equal(t, []string{"remove foo@1.2", "install foo@1.2"}, kinds(differ.Diff(lock, prefix)))
}

func TestDiff_InstallsInDependencyOrder(t *testing.T) {
	lock := []domain.ResolvedRecord{
		record(domain.EcosystemPyPI, "requests", "2.32.3", "urllib3", "python"),
		record(domain.EcosystemPyPI, "urllib3", "2.2.0", "python"),
		conda("python", "3.12.1", "openssl", "zlib"),
		conda("zlib", "1.3"),
		conda("openssl", "3.2.0"),
	}

	ops := differ.Diff(lock, nil)
	assert.Equal(t, []string{
		"install openssl@3.2.0",
		"install zlib@1.3",
		"install python@3.12.1",
		"install urllib3@2.2.0",
		"install requests@2.32.3",
	}, kinds(ops))

	python := ops[2]
	assert.Equal(t, []domain.LinkRef{
		{Name: "openssl", Checksum: "sha256:openssl-3.2.0"},
		{Name: "zlib", Checksum: "sha256:zlib-1.3"},
	}, python.Links)
}

func TestDiff_RemovesDependentsFirst(t *testing.T) {
	prefix := installAll([]domain.ResolvedRecord{
		conda("app", "1.0", "lib"),
		conda("lib", "1.0", "base"),
		conda("base", "1.0"),
		conda("keep", "1.0"),
	})

	ops := differ.Diff([]domain.ResolvedRecord{conda("keep", "1.0")}, prefix)
	assert.Equal(t, []string{"remove app@1.0", "remove lib@1.0", "remove base@1.0"}, kinds(ops))
}

func TestDiff_RelinksWhenDependencyChanges(t *testing.T) {
	before := []domain.ResolvedRecord{
		conda("app", "1.0", "zlib"),
		conda("zlib", "1.2"),
	}
	prefix := installAll(before)

	after := []domain.ResolvedRecord{
		conda("app", "1.0", "zlib"),
		conda("zlib", "1.3"),
	}
	ops := differ.Diff(after, prefix)
	assert.Equal(t, []string{"remove zlib@1.2", "install zlib@1.3", "relink app@1.0"}, kinds(ops))
	assert.Equal(t, []domain.LinkRef{{Name: "zlib", Checksum: "sha256:zlib-1.3"}}, ops[2].Links)

	assert.Empty(t, differ.Diff(after, apply(prefix, ops)))
}

func TestDiff_BreaksCyclesAtSmallestName(t *testing.T) {
	lock := []domain.ResolvedRecord{
		conda("b", "1", "a"),
		conda("a", "1", "b"),
		conda("c", "1", "a"),
	}
	assert.Equal(t, []string{"install a@1", "install b@1", "install c@1"}, kinds(differ.Diff(lock, nil)))
}

func TestDiff_NoOpWhenInSync(t *testing.T) {
	lock := []domain.ResolvedRecord{conda("python", "3.12.1", "zlib"), conda("zlib", "1.3")}
	assert.Nil(t, differ.Diff(lock, installAll(lock)))
	assert.Nil(t, differ.Diff(nil, nil))
	assert.Nil(t, differ.Diff(nil, &domain.PrefixRecord{Path: "/env"}))
}

// scenario derives a lock and an installed prefix from seed. Dependencies point to
// lower-numbered packages only, so the lock graph is acyclic.
func scenario(seed uint64) ([]domain.ResolvedRecord, *domain.PrefixRecord) {
	rng := rand.New(rand.NewPCG(seed, seed>>7|1))
	n := 1 + rng.IntN(12)

	build := func(versions func(i int) string) []domain.ResolvedRecord {
		var out []domain.ResolvedRecord
		for i := range n {
			v := versions(i)
			if v == "" {
				continue
			}
			var deps []string
			for j := range i {
				if rng.IntN(3) == 0 {
					deps = append(deps, fmt.Sprintf("p%02d", j))
				}
			}
			eco := domain.EcosystemConda
			if i > n/2 {
				eco = domain.EcosystemPyPI
			}
			out = append(out, record(eco, fmt.Sprintf("p%02d", i), v, deps...))
		}
		return out
	}

	old := build(func(int) string {
		if rng.IntN(4) == 0 {
			return ""
		}
		return fmt.Sprintf("1.%d", rng.IntN(2))
	})
	lock := build(func(int) string {
		if rng.IntN(5) == 0 {
			return ""
		}
		return fmt.Sprintf("1.%d", rng.IntN(2))
	})
	return lock, installAll(old)
}

func TestDiff_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("applying the diff converges", prop.ForAll(
		func(seed uint64) bool {
			lock, prefix := scenario(seed)
			return len(differ.Diff(lock, apply(prefix, differ.Diff(lock, prefix)))) == 0
		},
		gen.UInt64(),
	))

	properties.Property("removes precede installs which precede relinks", prop.ForAll(
		func(seed uint64) bool {
			lock, prefix := scenario(seed)
			ops := differ.Diff(lock, prefix)
			return slices.IsSortedFunc(ops, func(a, b domain.Operation) int {
				return int(a.Kind) - int(b.Kind)
			})
		},
		gen.UInt64(),
	))

	properties.Property("installs and relinks follow their dependencies", prop.ForAll(
		func(seed uint64) bool {
			lock, prefix := scenario(seed)
			ops := differ.Diff(lock, prefix)
			pos := make(map[string]int)
			for i, op := range ops {
				if op.Kind != domain.OpRemove {
					pos[op.Identity.Name] = i
				}
			}
			for i, op := range ops {
				if op.Kind == domain.OpRemove {
					continue
				}
				for _, d := range op.Record.Depends {
					j, ok := pos[d.String()]
					if !ok || ops[j].Kind > op.Kind {
						continue
					}
					if j > i {
						return false
					}
				}
			}
			return true
		},
		gen.UInt64(),
	))

	properties.Property("removals precede the removal of their dependencies", prop.ForAll(
		func(seed uint64) bool {
			lock, prefix := scenario(seed)
			removed := make(map[string]bool)
			for _, op := range differ.Diff(lock, prefix) {
				if op.Kind != domain.OpRemove {
					continue
				}
				for _, p := range prefix.Packages {
					if removed[p.Identity.Name] {
						continue
					}
					if slices.Contains(p.Depends, op.Identity.Name) && isRemoved(p.Identity, lock) {
						return false
					}
				}
				removed[op.Identity.Name] = true
			}
			return true
		},
		gen.UInt64(),
	))

	properties.TestingRun(t)
}

// isRemoved reports whether the installed identity is absent from or replaced in the lock.
func isRemoved(id domain.Identity, lock []domain.ResolvedRecord) bool {
	for _, r := range lock {
		if r.Name.String() == id.Name {
			return r.Identity() != id
		}
	}
	return true
}

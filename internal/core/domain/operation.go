package domain

// OperationKind is the tag of an Operation.
type OperationKind uint8

const (
	// OpRemove removes an installed package.
	OpRemove OperationKind = iota
	// OpInstall installs a locked record.
	OpInstall
	// OpRelink re-links an installed package against the current checksums of its dependencies.
	OpRelink
)

// String returns the lower case name of the kind.
func (k OperationKind) String() string {
	switch k {
	case OpRemove:
		return "remove"
	case OpInstall:
		return "install"
	case OpRelink:
		return "relink"
	}
	return "unknown"
}

// LinkRef records the checksum of one dependency at the time a package was linked.
type LinkRef struct {
	Name     string `json:"name"`
	Checksum string `json:"checksum"`
}

// Operation is a single change applied to an installed prefix.
type Operation struct {
	Kind OperationKind
	// Record is the locked record to install or relink. Unset for removals.
	Record ResolvedRecord
	// Identity is the installed identity to remove or relink. For installs it is the identity of Record.
	Identity Identity
	// Links are the dependency checksums an install or relink leaves the package linked against.
	Links []LinkRef
}

// InstallOp returns an operation installing record.
func InstallOp(record ResolvedRecord, links []LinkRef) Operation {
	return Operation{Kind: OpInstall, Record: record, Identity: record.Identity(), Links: links}
}

// RemoveOp returns an operation removing the installed package id.
func RemoveOp(id Identity) Operation {
	return Operation{Kind: OpRemove, Identity: id}
}

// RelinkOp returns an operation re-linking the installed form of record.
func RelinkOp(record ResolvedRecord, links []LinkRef) Operation {
	return Operation{Kind: OpRelink, Record: record, Identity: record.Identity(), Links: links}
}

// String renders the operation, e.g. "install foo@1.2".
func (o Operation) String() string {
	return o.Kind.String() + " " + o.Identity.String()
}

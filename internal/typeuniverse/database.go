package typeuniverse

import "sync"

// TypeDef is the record a handle of kind EnumType/EnumTypeInstance points
// at: a named, possibly generic, possibly enum-shaped type.
type TypeDef struct {
	ID         TypeID
	Name       string
	ModuleID   ModuleID
	Params     []ParameterID
	IsEnum     bool
	Variants   []VariantID
	Fields     []FieldID
	Visibility Visibility

	// HasDestructor is set by the "Implement traits" HIR pass when this
	// type carries an explicit Drop implementation. Destructor invocation
	// is out of scope; this bit only records the fact for later
	// passes/VM bookkeeping.
	HasDestructor bool
}

type Visibility int

const (
	VisPrivate Visibility = iota
	VisPublic
)

// TraitDef is the record for a trait declaration.
type TraitDef struct {
	ID            TraitID
	Name          string
	ModuleID      ModuleID
	Params        []ParameterID
	RequiredSuper []TraitID // super-traits this trait requires
	Visibility    Visibility
}

// TraitImplementation records `impl Trait for Type if bounds`.
type TraitImplementation struct {
	Instance TypeRef                       // a TraitInstance TypeRef
	ForType  TypeID
	Bounds   map[ParameterID]ParameterID   // parameter -> extra-requirement parameter
}

// Parameter is a generic type parameter declaration.
type Parameter struct {
	ID          ParameterID
	Name        string
	Mutable     bool // declared with `mut`; the "mutability flag" of HIR pass 2
	Requirements []TraitID
	// Bound, if set, is the concrete upper bound this parameter was given
	// (used when resolving a Placeholder's requirement).
	Bound TraitID
}

// Field is a struct/class member.
type Field struct {
	ID       FieldID
	Name     string
	Index    int
	Type     TypeRef
	OwnerID  TypeID
}

// Variant is one arm of an enum class.
type Variant struct {
	ID      VariantID
	Name    string
	Index   int
	Members []FieldID
	OwnerID TypeID
}

// ModuleRec tracks a module's symbol table root.
type ModuleRec struct {
	ID   ModuleID
	Name string
}

// Placeholder is an inference hole: either unassigned, or resolved
// (transitively) to a concrete TypeRef.
type Placeholder struct {
	ID            PlaceholderID
	Requirement   Ownership // the ownership the eventual value must satisfy
	BoundParam     ParameterID
	Resolved      bool
	Value         TypeRef
}

// Database is the single owner of every type-universe record. All
// access is behind a RWMutex: HIR passes populate it module-by-module
// (potentially concurrently across modules within one pass, mirroring
// the per-module-then-next-pass HIR pipeline), while the
// checker and pretty printer only read (aside from placeholder
// assignment, which is transient and reverted on failure).
type Database struct {
	mu sync.RWMutex

	types      map[TypeID]*TypeDef
	traits     map[TraitID]*TraitDef
	params     map[ParameterID]*Parameter
	fields     map[FieldID]*Field
	variants   map[VariantID]*Variant
	modules    map[ModuleID]*ModuleRec
	placeholders map[PlaceholderID]*Placeholder

	implsByType map[TypeID][]*TraitImplementation

	nextType      TypeID
	nextTrait     TraitID
	nextParam     ParameterID
	nextField     FieldID
	nextVariant   VariantID
	nextModule    ModuleID
	nextPlaceholder PlaceholderID
}

func NewDatabase() *Database {
	return &Database{
		types:        make(map[TypeID]*TypeDef),
		traits:       make(map[TraitID]*TraitDef),
		params:       make(map[ParameterID]*Parameter),
		fields:       make(map[FieldID]*Field),
		variants:     make(map[VariantID]*Variant),
		modules:      make(map[ModuleID]*ModuleRec),
		placeholders: make(map[PlaceholderID]*Placeholder),
		implsByType:  make(map[TypeID][]*TraitImplementation),
	}
}

func (db *Database) NewModule(name string) ModuleID {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.nextModule++
	id := db.nextModule
	db.modules[id] = &ModuleRec{ID: id, Name: name}
	return id
}

func (db *Database) ModuleName(id ModuleID) string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if m, ok := db.modules[id]; ok {
		return m.Name
	}
	return "<unknown module>"
}

// DefineType allocates a new TypeDef. Returns NoType and false if name is
// already taken in module mod (duplicate-symbol rejection per HIR pass 1).
func (db *Database) DefineType(mod ModuleID, name string, vis Visibility) (TypeID, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, t := range db.types {
		if t.ModuleID == mod && t.Name == name {
			return NoType, false
		}
	}
	db.nextType++
	id := db.nextType
	db.types[id] = &TypeDef{ID: id, Name: name, ModuleID: mod, Visibility: vis}
	return id, true
}

func (db *Database) TypeDef(id TypeID) *TypeDef {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.types[id]
}

func (db *Database) TypeName(id TypeID) string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if t, ok := db.types[id]; ok {
		return t.Name
	}
	return "<unknown type>"
}

func (db *Database) DefineTrait(mod ModuleID, name string, vis Visibility) (TraitID, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, t := range db.traits {
		if t.ModuleID == mod && t.Name == name {
			return NoTrait, false
		}
	}
	db.nextTrait++
	id := db.nextTrait
	db.traits[id] = &TraitDef{ID: id, Name: name, ModuleID: mod}
	return id, true
}

func (db *Database) TraitDefOf(id TraitID) *TraitDef {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.traits[id]
}

func (db *Database) TraitName(id TraitID) string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if t, ok := db.traits[id]; ok {
		return t.Name
	}
	return "<unknown trait>"
}

func (db *Database) DefineParameter(name string, mutable bool) ParameterID {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.nextParam++
	id := db.nextParam
	db.params[id] = &Parameter{ID: id, Name: name, Mutable: mutable}
	return id
}

func (db *Database) Parameter(id ParameterID) *Parameter {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.params[id]
}

func (db *Database) ParameterName(id ParameterID) string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if p, ok := db.params[id]; ok {
		return p.Name
	}
	return "<unknown param>"
}

func (db *Database) DefineField(owner TypeID, name string, index int, t TypeRef) FieldID {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.nextField++
	id := db.nextField
	db.fields[id] = &Field{ID: id, Name: name, Index: index, Type: t, OwnerID: owner}
	db.types[owner].Fields = append(db.types[owner].Fields, id)
	return id
}

func (db *Database) Field(id FieldID) *Field {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.fields[id]
}

func (db *Database) DefineVariant(owner TypeID, name string, index int, members []FieldID) VariantID {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.nextVariant++
	id := db.nextVariant
	db.variants[id] = &Variant{ID: id, Name: name, Index: index, Members: members, OwnerID: owner}
	db.types[owner].Variants = append(db.types[owner].Variants, id)
	return id
}

func (db *Database) Variant(id VariantID) *Variant {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.variants[id]
}

// AddImplementation records impl.Instance applies to forType, returning
// false if an equivalent implementation is already registered (duplicate
// rejection per HIR pass 3).
func (db *Database) AddImplementation(forType TypeID, impl *TraitImplementation) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	impl.ForType = forType
	for _, existing := range db.implsByType[forType] {
		if existing.Instance.Enum.TraitID == impl.Instance.Enum.TraitID {
			return false
		}
	}
	db.implsByType[forType] = append(db.implsByType[forType], impl)
	return true
}

func (db *Database) ImplementationsFor(t TypeID) []*TraitImplementation {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return append([]*TraitImplementation(nil), db.implsByType[t]...)
}

// ImplementationOf returns the TraitImplementation of trait on t, if any.
func (db *Database) ImplementationOf(t TypeID, trait TraitID) (*TraitImplementation, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	for _, impl := range db.implsByType[t] {
		if impl.Instance.Enum.TraitID == trait {
			return impl, true
		}
	}
	return nil, false
}

// NewPlaceholder allocates a fresh unresolved inference hole carrying the
// given ownership requirement.
func (db *Database) NewPlaceholder(requirement Ownership) PlaceholderID {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.nextPlaceholder++
	id := db.nextPlaceholder
	db.placeholders[id] = &Placeholder{ID: id, Requirement: requirement}
	return id
}

func (db *Database) Placeholder(id PlaceholderID) *Placeholder {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.placeholders[id]
}

// AssignPlaceholder resolves id to value. Returns the previous state so
// the caller (the checker, on failure) can revert it exactly.
func (db *Database) AssignPlaceholder(id PlaceholderID, value TypeRef) (prevResolved bool, prevValue TypeRef) {
	db.mu.Lock()
	defer db.mu.Unlock()
	ph := db.placeholders[id]
	prevResolved, prevValue = ph.Resolved, ph.Value
	ph.Resolved = true
	ph.Value = value
	return
}

// RevertPlaceholder restores a placeholder to a previously saved state,
// undoing a tentative assignment made during a failed check.
func (db *Database) RevertPlaceholder(id PlaceholderID, resolved bool, value TypeRef) {
	db.mu.Lock()
	defer db.mu.Unlock()
	ph := db.placeholders[id]
	ph.Resolved = resolved
	ph.Value = value
}

// Resolve follows t through placeholder indirection until it reaches a
// non-placeholder TypeRef or an unresolved placeholder. Guards against
// the invariant violation of a placeholder pointing at itself.
func (db *Database) Resolve(t TypeRef) TypeRef {
	seen := make(map[PlaceholderID]bool)
	for t.Ownership == PlaceholderKind {
		ph := db.Placeholder(t.Placeholder)
		if ph == nil || !ph.Resolved {
			return t
		}
		if seen[t.Placeholder] {
			return t // cyclic; should never happen per invariant
		}
		seen[t.Placeholder] = true
		if ph.Value.Ownership == PlaceholderKind && ph.Value.Placeholder == t.Placeholder {
			return t // resolved to itself would violate the invariant
		}
		t = ph.Value
	}
	return t
}

package project

// Store persists projects under an injected storage root. The engine itself
// never touches the filesystem; infra/store provides the JSON implementation.
type Store interface {
	Save(p *Project) error
	Load(name string) (*Project, error)
	List() ([]string, error)
}

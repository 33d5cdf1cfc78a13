package seed

// UserEntry is a single account in the seed YAML.
type UserEntry struct {
	Email    string          `yaml:"email"`
	Name     string          `yaml:"name"`
	Avatar   string          `yaml:"avatar"`
	Password string          `yaml:"password"`
	Marks    []BookmarkEntry `yaml:"bookmarks"`
}

// BookmarkEntry is a single pre-seeded bookmark in the seed YAML.
type BookmarkEntry struct {
	URL   string `yaml:"url"`
	Title string `yaml:"title"`
}

// Config is the root structure of the seed file.
type Config struct {
	Users []UserEntry `yaml:"users"`
}

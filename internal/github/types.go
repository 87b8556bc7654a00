package github

// User is the short user record embedded in most API objects.
type User struct {
	Login     string `json:"login"`
	ID        int64  `json:"id"`
	HTMLURL   string `json:"html_url"`
	AvatarURL string `json:"avatar_url"`
	Type      string `json:"type,omitempty"`
}

// UserPlan is the billing plan of the authenticated user.
type UserPlan struct {
	Name          string `json:"name"`
	Space         int64  `json:"space"`
	Collaborators int64  `json:"collaborators"`
	PrivateRepos  int64  `json:"private_repos"`
}

// IsPrivateRepoAllowed reports whether the plan allows at least one private repository.
func (p *UserPlan) IsPrivateRepoAllowed() bool {
	return p != nil && p.PrivateRepos > 0
}

// UserDetailed is the full record of the authenticated user.
type UserDetailed struct {
	User
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Company           string    `json:"company"`
	Location          string    `json:"location"`
	Blog              string    `json:"blog"`
	PublicRepos       int       `json:"public_repos"`
	PublicGists       int       `json:"public_gists"`
	TotalPrivateRepos int       `json:"total_private_repos"`
	OwnedPrivateRepos int       `json:"owned_private_repos"`
	PrivateGists      int       `json:"private_gists"`
	DiskUsage         int64     `json:"disk_usage"`
	Followers         int       `json:"followers"`
	Following         int       `json:"following"`
	Plan              *UserPlan `json:"plan"`
	CreatedAt         Timestamp `json:"created_at"`
}

// Org is an organization the user belongs to.
type Org struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
}

// Repo is a repository as listed by collection endpoints.
type Repo struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Description   string `json:"description"`
	Private       bool   `json:"private"`
	Fork          bool   `json:"fork"`
	HTMLURL       string `json:"html_url"`
	CloneURL      string `json:"clone_url"`
	DefaultBranch string `json:"default_branch"`
	Owner         User   `json:"owner"`
}

// Path returns the owner/name coordinates of the repository.
func (r Repo) Path() RepoPath {
	return RepoPath{Owner: r.Owner.Login, Repo: r.Name}
}

// RepoDetailed adds fork ancestry to Repo.
type RepoDetailed struct {
	Repo
	Parent *Repo `json:"parent,omitempty"`
	Source *Repo `json:"source,omitempty"`
}

// Branch is a repository branch.
type Branch struct {
	Name   string `json:"name"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

// GistFile is one file of a gist.
type GistFile struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Content  string `json:"content"`
	Type     string `json:"type"`
	Language string `json:"language"`
	RawURL   string `json:"raw_url"`
}

// Gist is a gist with its files keyed by filename.
type Gist struct {
	ID          string              `json:"id"`
	Description string              `json:"description"`
	Public      bool                `json:"public"`
	URL         string              `json:"url"`
	HTMLURL     string              `json:"html_url"`
	GitPullURL  string              `json:"git_pull_url"`
	GitPushURL  string              `json:"git_push_url"`
	Files       map[string]GistFile `json:"files"`
	Owner       *User               `json:"owner,omitempty"`
	CreatedAt   Timestamp           `json:"created_at"`
}

// FileContent is a named file to upload, in caller order.
type FileContent struct {
	Name    string
	Content string
}

// Issue is an issue or pull request as seen by the issues API.
type Issue struct {
	Number    int64     `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	Body      string    `json:"body"`
	HTMLURL   string    `json:"html_url"`
	User      User      `json:"user"`
	Assignee  *User     `json:"assignee"`
	ClosedAt  Timestamp `json:"closed_at"`
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// IssueComment is a comment with its rendered HTML body.
type IssueComment struct {
	ID        int64     `json:"id"`
	HTMLURL   string    `json:"html_url"`
	Body      string    `json:"body"`
	BodyHTML  string    `json:"body_html"`
	User      User      `json:"user"`
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// PullRequestRef is the head or base side of a pull request.
type PullRequestRef struct {
	Label string `json:"label"`
	Ref   string `json:"ref"`
	SHA   string `json:"sha"`
	Repo  *Repo  `json:"repo"`
	User  *User  `json:"user"`
}

// PullRequest is a pull request.
type PullRequest struct {
	Number    int64          `json:"number"`
	State     string         `json:"state"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	BodyHTML  string         `json:"body_html"`
	HTMLURL   string         `json:"html_url"`
	DiffURL   string         `json:"diff_url"`
	PatchURL  string         `json:"patch_url"`
	IssueURL  string         `json:"issue_url"`
	CreatedAt Timestamp      `json:"created_at"`
	UpdatedAt Timestamp      `json:"updated_at"`
	ClosedAt  Timestamp      `json:"closed_at"`
	MergedAt  Timestamp      `json:"merged_at"`
	User      User           `json:"user"`
	Head      PullRequestRef `json:"head"`
	Base      PullRequestRef `json:"base"`
}

// GitUser is the author or committer recorded in a git commit.
type GitUser struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Date  Timestamp `json:"date"`
}

// GitCommit is the git-level part of a commit.
type GitCommit struct {
	Message   string  `json:"message"`
	Author    GitUser `json:"author"`
	Committer GitUser `json:"committer"`
}

// CommitSHA references a commit.
type CommitSHA struct {
	URL string `json:"url"`
	SHA string `json:"sha"`
}

// Commit is a commit as listed by collection endpoints.
type Commit struct {
	CommitSHA
	Author    *User       `json:"author"`
	Committer *User       `json:"committer"`
	Parents   []CommitSHA `json:"parents"`
	Commit    GitCommit   `json:"commit"`
}

// CommitStats counts changed lines.
type CommitStats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
	Total     int `json:"total"`
}

// CommitDetailed adds stats and changed files to Commit.
type CommitDetailed struct {
	Commit
	Stats CommitStats `json:"stats"`
	Files []File      `json:"files"`
}

// File is a changed file in a commit or pull request.
type File struct {
	Filename  string `json:"filename"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Changes   int    `json:"changes"`
	Status    string `json:"status"`
	RawURL    string `json:"raw_url"`
	Patch     string `json:"patch"`
}

// Authorization is an OAuth authorization with its token.
type Authorization struct {
	ID      int64    `json:"id"`
	URL     string   `json:"url"`
	Token   string   `json:"token"`
	Note    string   `json:"note"`
	NoteURL string   `json:"note_url"`
	Scopes  []string `json:"scopes"`
}

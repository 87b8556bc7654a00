package render

import (
	"fmt"
	"sort"
	"strings"

	"ghclient/internal/github"
)

// UserMarkdown describes the authenticated user.
func UserMarkdown(u *github.UserDetailed) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", u.Login)
	if u.Name != "" {
		fmt.Fprintf(&b, "**%s**\n\n", u.Name)
	}
	field(&b, "Profile", u.HTMLURL)
	field(&b, "Email", u.Email)
	field(&b, "Company", u.Company)
	field(&b, "Location", u.Location)
	field(&b, "Blog", u.Blog)
	field(&b, "Member since", u.CreatedAt.String())
	fmt.Fprintf(&b, "- **Public repositories:** %d\n", u.PublicRepos)
	fmt.Fprintf(&b, "- **Followers / following:** %d / %d\n", u.Followers, u.Following)
	if u.Plan != nil {
		private := "not allowed"
		if u.Plan.IsPrivateRepoAllowed() {
			private = "allowed"
		}
		fmt.Fprintf(&b, "- **Plan:** %s (private repositories %s)\n", u.Plan.Name, private)
	}
	return b.String()
}

// RepoMarkdown describes a repository and its fork ancestry.
func RepoMarkdown(r *github.RepoDetailed) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.FullName)
	if r.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", r.Description)
	}
	visibility := "public"
	if r.Private {
		visibility = "private"
	}
	field(&b, "Visibility", visibility)
	field(&b, "Default branch", r.DefaultBranch)
	field(&b, "URL", r.HTMLURL)
	field(&b, "Clone", r.CloneURL)
	if r.Parent != nil {
		field(&b, "Forked from", r.Parent.FullName)
	}
	if r.Source != nil && (r.Parent == nil || r.Source.FullName != r.Parent.FullName) {
		field(&b, "Source", r.Source.FullName)
	}
	return b.String()
}

// ReposMarkdown lists repositories.
func ReposMarkdown(title string, repos []github.Repo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	if len(repos) == 0 {
		b.WriteString("_No repositories._\n")
		return b.String()
	}
	for _, r := range repos {
		fmt.Fprintf(&b, "- **%s**", r.FullName)
		if r.Private {
			b.WriteString(" (private)")
		}
		if r.Fork {
			b.WriteString(" (fork)")
		}
		if r.Description != "" {
			fmt.Fprintf(&b, ": %s", r.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// BranchesMarkdown lists branch names with their head commit.
func BranchesMarkdown(repo github.RepoPath, branches []github.Branch) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Branches of %s\n\n", repo)
	for _, br := range branches {
		fmt.Fprintf(&b, "- `%s` %s\n", br.Name, shortSHA(br.Commit.SHA))
	}
	return b.String()
}

// PullRequestsMarkdown lists pull requests.
func PullRequestsMarkdown(repo github.RepoPath, pulls []github.PullRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Pull requests of %s\n\n", repo)
	if len(pulls) == 0 {
		b.WriteString("_No open pull requests._\n")
		return b.String()
	}
	for _, p := range pulls {
		fmt.Fprintf(&b, "- **#%d** %s (`%s` → `%s`) by %s\n", p.Number, p.Title, p.Head.Label, p.Base.Label, p.User.Login)
	}
	return b.String()
}

// PullRequestMarkdown describes a single pull request.
func PullRequestMarkdown(p *github.PullRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# #%d %s\n\n", p.Number, p.Title)
	field(&b, "State", p.State)
	field(&b, "Author", p.User.Login)
	field(&b, "Head", p.Head.Label)
	field(&b, "Base", p.Base.Label)
	field(&b, "Created", p.CreatedAt.String())
	field(&b, "Merged", p.MergedAt.String())
	field(&b, "URL", p.HTMLURL)
	if body := bodyText(p.Body, p.BodyHTML, p.HTMLURL); body != "" {
		fmt.Fprintf(&b, "\n%s\n", body)
	}
	return b.String()
}

// IssuesMarkdown lists issues.
func IssuesMarkdown(title string, issues []github.Issue) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	if len(issues) == 0 {
		b.WriteString("_No issues._\n")
		return b.String()
	}
	for _, i := range issues {
		fmt.Fprintf(&b, "- **#%d** [%s] %s", i.Number, i.State, i.Title)
		if i.Assignee != nil {
			fmt.Fprintf(&b, " (assigned to %s)", i.Assignee.Login)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// IssueMarkdown describes an issue followed by its comments.
func IssueMarkdown(i *github.Issue, comments []github.IssueComment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# #%d %s\n\n", i.Number, i.Title)
	field(&b, "State", i.State)
	field(&b, "Author", i.User.Login)
	field(&b, "Created", i.CreatedAt.String())
	field(&b, "Closed", i.ClosedAt.String())
	if i.Body != "" {
		fmt.Fprintf(&b, "\n%s\n", i.Body)
	}
	for _, c := range comments {
		fmt.Fprintf(&b, "\n---\n\n**%s** on %s\n\n%s\n", c.User.Login, c.CreatedAt, bodyText(c.Body, c.BodyHTML, c.HTMLURL))
	}
	return b.String()
}

// GistMarkdown shows a gist with each file in a fenced block, files sorted by name.
func GistMarkdown(g *github.Gist) string {
	var b strings.Builder
	title := g.Description
	if title == "" {
		title = "Gist " + g.ID
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	field(&b, "URL", g.HTMLURL)
	if g.Owner != nil {
		field(&b, "Owner", g.Owner.Login)
	}
	if !g.Public {
		field(&b, "Visibility", "secret")
	}

	names := make([]string, 0, len(g.Files))
	for name := range g.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f := g.Files[name]
		fmt.Fprintf(&b, "\n## %s\n\n```%s\n%s\n```\n", name, strings.ToLower(f.Language), strings.TrimRight(f.Content, "\n"))
	}
	return b.String()
}

// CommitMarkdown summarizes a commit and its changed files.
func CommitMarkdown(c *github.CommitDetailed) string {
	var b strings.Builder
	git := c.Commit.Commit
	subject, body, _ := strings.Cut(git.Message, "\n")
	fmt.Fprintf(&b, "# %s %s\n\n", shortSHA(c.SHA), subject)
	field(&b, "Author", git.Author.Name)
	field(&b, "Date", git.Author.Date.String())
	fmt.Fprintf(&b, "- **Changes:** +%d -%d\n", c.Stats.Additions, c.Stats.Deletions)
	if body = strings.TrimSpace(body); body != "" {
		fmt.Fprintf(&b, "\n%s\n", body)
	}
	if len(c.Files) > 0 {
		b.WriteString("\n")
		writeFiles(&b, c.Files)
	}
	return b.String()
}

// PullRequestChangesMarkdown lists the commits and changed files of a pull request.
func PullRequestChangesMarkdown(commits []github.Commit, files []github.File) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Commits (%d)\n\n", len(commits))
	for _, c := range commits {
		subject, _, _ := strings.Cut(c.Commit.Message, "\n")
		fmt.Fprintf(&b, "- `%s` %s\n", shortSHA(c.SHA), subject)
	}
	fmt.Fprintf(&b, "\n## Files (%d)\n\n", len(files))
	writeFiles(&b, files)
	return b.String()
}

func writeFiles(b *strings.Builder, files []github.File) {
	for _, f := range files {
		fmt.Fprintf(b, "- `%s` %s (+%d -%d)\n", f.Filename, f.Status, f.Additions, f.Deletions)
	}
}

// ScopesMarkdown lists OAuth scopes of a token.
func ScopesMarkdown(scopes []string) string {
	if len(scopes) == 0 {
		return "# Token scopes\n\n_The token has no scopes._\n"
	}
	var b strings.Builder
	b.WriteString("# Token scopes\n\n")
	for _, s := range scopes {
		fmt.Fprintf(&b, "- `%s`\n", s)
	}
	return b.String()
}

func field(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "- **%s:** %s\n", name, value)
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

package web

import "html/template"

func tmpl(text string) *template.Template {
	t := template.Must(baseTmpl.Clone())
	t = template.Must(t.Parse(`{{ define "content" }}` + text + `{{ end }}`))
	return t
}

var baseTmpl = template.Must(template.New("base").Parse(`
<!DOCTYPE html>
<html>
	<head>
		<meta charset="utf-8">
		<title>Inkwell</title>
		<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/bootstrap@4.6.2/dist/css/bootstrap.min.css">
	</head>
	<body>
		<nav class="navbar navbar-expand navbar-dark bg-dark mb-4">
			<a class="navbar-brand" href="/">Inkwell</a>
			<div class="navbar-nav mr-auto">
				<a class="nav-link" href="/posts/">Posts</a>
				{{ if .Username }}<a class="nav-link" href="/create-post/">New Post</a>{{ end }}
			</div>
			<div class="navbar-nav">
				{{ if .Username }}
					<a class="nav-link" href="/profile/">{{ .Username }}</a>
					<a class="nav-link" href="/logout/">Logout</a>
				{{ else }}
					<a class="nav-link" href="/login/">Login</a>
					<a class="nav-link" href="/register/">Register</a>
				{{ end }}
			</div>
		</nav>
		<div class="container">
			{{ .Notifications }}
			{{ if .APIError }}<div class="alert alert-warning" role="alert">{{ .APIError }}</div>{{ end }}
			{{ template "content" . }}
		</div>
	</body>
</html>`))

var homeTmpl = tmpl(`<h1>Recent Posts</h1>
	{{ if .Posts }}
		<ul class="list-group">
		{{ range .Posts }}
			<li class="list-group-item">
				<a href="/posts/{{ .ID }}/">{{ .Title }}</a>
				<small class="text-muted">by {{ .Author.Username }} on {{ .CreatedAt.Format "Jan 2, 2006" }}</small>
			</li>
		{{ end }}
		</ul>
	{{ else }}
		<p>No posts yet.</p>
	{{ end }}`)

var postsTmpl = tmpl(`<h1>All Posts</h1>
	<form method="get" class="form-inline mb-3">
		<input type="text" class="form-control mr-2" name="search" value="{{ .Search }}" placeholder="Search posts">
		<button type="submit" class="btn btn-outline-primary">Search</button>
	</form>
	{{ if .Posts }}
		<ul class="list-group">
		{{ range .Posts }}
			<li class="list-group-item">
				<a href="/posts/{{ .ID }}/">{{ .Title }}</a>
				<small class="text-muted">by {{ .Author.Username }} on {{ .CreatedAt.Format "Jan 2, 2006" }}</small>
			</li>
		{{ end }}
		</ul>
	{{ else }}
		<p>No posts found.</p>
	{{ end }}`)

var postDetailTmpl = tmpl(`<h1>{{ .Post.Title }}</h1>
	<p class="text-muted">by {{ .Post.Author.Username }} on {{ .Post.CreatedAt.Format "Jan 2, 2006 15:04" }}</p>
	{{ if .Post.FeaturedImage }}<img class="img-fluid mb-3" src="{{ .ImageURL }}" alt="{{ .Post.Title }}">{{ end }}
	<div>{{ .Post.Content }}</div>
	{{ if .Owned }}
		<div class="mt-3">
			<a class="btn btn-secondary" href="/posts/{{ .Post.ID }}/update/">Edit</a>
			<a class="btn btn-danger" href="/posts/{{ .Post.ID }}/delete/">Delete</a>
		</div>
	{{ end }}`)

var loginTmpl = tmpl(`<h1>Login</h1>
	<form method="post" style="max-width: 20rem;">
		<div class="form-group">
			<label>Username</label>
			<input type="text" class="form-control" name="username" value="{{ .FormUsername }}" required autofocus>
		</div>
		<div class="form-group">
			<label>Password</label>
			<input type="password" class="form-control" name="password" required>
		</div>
		<button type="submit" class="btn btn-primary">Login</button>
	</form>`)

var registerTmpl = tmpl(`<h1>Register</h1>
	<form method="post" style="max-width: 24rem;">
		<div class="form-group">
			<label>Username</label>
			<input type="text" class="form-control" name="username" value="{{ .Form.Username }}" required autofocus>
		</div>
		<div class="form-group">
			<label>E-Mail</label>
			<input type="email" class="form-control" name="email" value="{{ .Form.Email }}">
		</div>
		<div class="form-group">
			<label>First name</label>
			<input type="text" class="form-control" name="first_name" value="{{ .Form.FirstName }}">
		</div>
		<div class="form-group">
			<label>Last name</label>
			<input type="text" class="form-control" name="last_name" value="{{ .Form.LastName }}">
		</div>
		<div class="form-group">
			<label>Password</label>
			<input type="password" class="form-control" name="password" required>
		</div>
		<button type="submit" class="btn btn-primary">Register</button>
	</form>`)

var postFormTmpl = tmpl(`<h1>{{ .Heading }}</h1>
	<form method="post">
		<div class="form-group">
			<label>Title</label>
			<input type="text" class="form-control" name="title" value="{{ .Title }}" required autofocus>
		</div>
		<div class="form-group">
			<label>Content</label>
			<textarea class="form-control" name="content" rows="10">{{ .Content }}</textarea>
		</div>
		<button type="submit" class="btn btn-primary">Save</button>
	</form>`)

var deleteTmpl = tmpl(`<h1>Delete Post</h1>
	<p>Delete &quot;{{ .Post.Title }}&quot;? This cannot be undone.</p>
	<form method="post">
		<button type="submit" class="btn btn-danger">Delete</button>
		<a class="btn btn-secondary" href="/posts/{{ .Post.ID }}/">Cancel</a>
	</form>`)

var profileTmpl = tmpl(`<h1>Profile</h1>
	<p><strong>Username:</strong> {{ .Profile.Username }}</p>
	<form method="post" style="max-width: 24rem;">
		<div class="form-group">
			<label>E-Mail</label>
			<input type="email" class="form-control" name="email" value="{{ .Profile.Email }}">
		</div>
		<div class="form-group">
			<label>First name</label>
			<input type="text" class="form-control" name="first_name" value="{{ .Profile.FirstName }}">
		</div>
		<div class="form-group">
			<label>Last name</label>
			<input type="text" class="form-control" name="last_name" value="{{ .Profile.LastName }}">
		</div>
		<button type="submit" class="btn btn-primary">Save</button>
	</form>`)

var errorTmpl = tmpl(`<div class="alert alert-danger" role="alert">{{ .Message }}</div>`)

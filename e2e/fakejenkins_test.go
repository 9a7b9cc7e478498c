//go:build e2e

package e2e

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/go-pkgz/routegroup"
)

// fakeJenkins serves the screens and endpoints the suite drives: dashboard with the job table
// or the empty state, new item form, freestyle project pages with the delete dialog, login,
// json api, crumb issuer and the resource bundle endpoint. Jobs live in memory.
type fakeJenkins struct {
	user, password string // empty user disables security

	mu       sync.Mutex
	jobs     map[string]*fakeJob
	sessions map[string]bool
	crumb    string
	tmpl     *template.Template
}

type fakeJob struct {
	Name        string
	Description string
}

// Path is the job url with trailing slash
func (j fakeJob) Path() string { return "/job/" + url.PathEscape(j.Name) + "/" }

// DeleteMessage is the question shown by the delete dialog
func (j fakeJob) DeleteMessage() string { return fmt.Sprintf("Delete the Project ‘%s’?", j.Name) }

type fakePage struct {
	Title string
	Crumb string
	Job   *fakeJob
	Jobs  []fakeJob
	Error string
}

const crumbField = "Jenkins-Crumb"

func newFakeJenkins(user, password string) *fakeJenkins {
	return &fakeJenkins{
		user:     user,
		password: password,
		jobs:     map[string]*fakeJob{},
		sessions: map[string]bool{},
		crumb:    randomHex(16),
		tmpl:     template.Must(template.New("jenkins").Parse(fakeTemplates)),
	}
}

func (f *fakeJenkins) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())
	router.Use(f.auth)

	router.HandleFunc("GET /{$}", f.dashboard)
	router.HandleFunc("GET /login", f.loginForm)
	router.HandleFunc("POST /j_spring_security_check", f.login)
	router.HandleFunc("GET /view/all/newJob", f.newJobForm)
	router.HandleFunc("POST /createItem", f.createItem)

	router.Mount("/job/{name}").Route(func(job *routegroup.Bundle) {
		job.HandleFunc("GET /{$}", f.withJob(f.jobPage))
		job.HandleFunc("GET /configure", f.withJob(f.configurePage))
		job.HandleFunc("POST /configSubmit", f.withJob(f.saveDescription))
		job.HandleFunc("GET /editDescription", f.withJob(f.editDescriptionPage))
		job.HandleFunc("POST /submitDescription", f.withJob(f.saveDescription))
		job.HandleFunc("GET /move", f.withJob(f.movePage))
		job.HandleFunc("POST /move/move", f.withJob(f.move))
		job.HandleFunc("POST /doDelete", f.withJob(f.doDelete))
	})

	router.HandleFunc("GET /api/json", f.apiJobs)
	router.HandleFunc("GET /crumbIssuer/api/json", f.crumbIssuer)
	router.HandleFunc("GET /i18n/resourceBundle", f.resourceBundle)
	router.HandleFunc("GET /static/jenkins.js", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/javascript")
		_, _ = w.Write([]byte(fakeScript))
	})
	router.HandleFunc("GET /static/jenkins.css", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/css")
		_, _ = w.Write([]byte(fakeStyle))
	})
	return router
}

// auth lets anonymous users reach the login form and static files only
func (f *fakeJenkins) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f.user == "" || f.authorized(r) {
			next.ServeHTTP(w, r)
			return
		}
		switch {
		case r.URL.Path == "/login", r.URL.Path == "/j_spring_security_check",
			strings.HasPrefix(r.URL.Path, "/static/"), strings.HasPrefix(r.URL.Path, "/i18n/"):
			next.ServeHTTP(w, r)
		case r.Method == http.MethodGet && !strings.Contains(r.URL.Path, "/api/"):
			http.Redirect(w, r, "/login?from="+url.QueryEscape(r.URL.Path), http.StatusFound)
		default:
			http.Error(w, "authentication required", http.StatusForbidden)
		}
	})
}

func (f *fakeJenkins) authorized(r *http.Request) bool {
	if u, p, ok := r.BasicAuth(); ok {
		return u == f.user && p == f.password
	}
	c, err := r.Cookie("JSESSIONID")
	if err != nil {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[c.Value]
}

func (f *fakeJenkins) withJob(h func(w http.ResponseWriter, r *http.Request, job *fakeJob)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		job, ok := f.jobs[r.PathValue("name")]
		f.mu.Unlock()
		if !ok {
			http.Error(w, "no such job", http.StatusNotFound)
			return
		}
		h(w, r, job)
	}
}

func (f *fakeJenkins) render(w http.ResponseWriter, status int, name string, p fakePage) {
	p.Crumb = f.crumb
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := f.tmpl.ExecuteTemplate(w, name, p); err != nil {
		fmt.Printf("fake jenkins: can't render %s: %v\n", name, err)
	}
}

func (f *fakeJenkins) dashboard(w http.ResponseWriter, _ *http.Request) {
	f.render(w, http.StatusOK, "dashboard", fakePage{Title: "Dashboard", Jobs: f.list()})
}

func (f *fakeJenkins) loginForm(w http.ResponseWriter, r *http.Request) {
	p := fakePage{Title: "Sign in"}
	if r.URL.Query().Has("error") {
		p.Error = "Invalid username or password"
	}
	f.render(w, http.StatusOK, "login", p)
}

func (f *fakeJenkins) login(w http.ResponseWriter, r *http.Request) {
	if f.user == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	if r.FormValue("j_username") != f.user || r.FormValue("j_password") != f.password {
		http.Redirect(w, r, "/login?error", http.StatusFound)
		return
	}
	sid := randomHex(16)
	f.mu.Lock()
	f.sessions[sid] = true
	f.mu.Unlock()
	http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: sid, Path: "/", HttpOnly: true})
	http.Redirect(w, r, "/", http.StatusFound)
}

func (f *fakeJenkins) newJobForm(w http.ResponseWriter, _ *http.Request) {
	f.render(w, http.StatusOK, "newJob", fakePage{Title: "New Item"})
}

func (f *fakeJenkins) createItem(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("name"))
	if r.FormValue("mode") != "hudson.model.FreeStyleProject" {
		f.render(w, http.StatusBadRequest, "newJob", fakePage{Title: "Error", Error: "Unsupported item type"})
		return
	}
	if name == "" || strings.ContainsAny(name, `/\?#[]%<>|;:!@$^&*`) {
		f.render(w, http.StatusBadRequest, "newJob", fakePage{Title: "Error", Error: "Invalid item name"})
		return
	}

	f.mu.Lock()
	_, exists := f.jobs[name]
	if !exists {
		f.jobs[name] = &fakeJob{Name: name}
	}
	f.mu.Unlock()
	if exists {
		f.render(w, http.StatusBadRequest, "newJob", fakePage{Title: "Error", Error: "A job already exists with the name " + name})
		return
	}
	http.Redirect(w, r, fakeJob{Name: name}.Path()+"configure", http.StatusFound)
}

func (f *fakeJenkins) jobPage(w http.ResponseWriter, _ *http.Request, job *fakeJob) {
	j := f.snapshot(job)
	f.render(w, http.StatusOK, "job", fakePage{Title: j.Name, Job: &j})
}

func (f *fakeJenkins) configurePage(w http.ResponseWriter, _ *http.Request, job *fakeJob) {
	j := f.snapshot(job)
	f.render(w, http.StatusOK, "configure", fakePage{Title: j.Name + " Config", Job: &j})
}

func (f *fakeJenkins) editDescriptionPage(w http.ResponseWriter, _ *http.Request, job *fakeJob) {
	j := f.snapshot(job)
	f.render(w, http.StatusOK, "editDescription", fakePage{Title: j.Name, Job: &j})
}

func (f *fakeJenkins) saveDescription(w http.ResponseWriter, r *http.Request, job *fakeJob) {
	desc := r.FormValue("description")
	f.mu.Lock()
	job.Description = desc
	f.mu.Unlock()
	http.Redirect(w, r, job.Path(), http.StatusFound)
}

func (f *fakeJenkins) movePage(w http.ResponseWriter, _ *http.Request, job *fakeJob) {
	j := f.snapshot(job)
	f.render(w, http.StatusOK, "move", fakePage{Title: "Move " + j.Name, Job: &j})
}

func (f *fakeJenkins) move(w http.ResponseWriter, r *http.Request, job *fakeJob) {
	if r.FormValue("destination") != "/" {
		http.Error(w, "no such folder", http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, job.Path(), http.StatusFound)
}

func (f *fakeJenkins) doDelete(w http.ResponseWriter, r *http.Request, job *fakeJob) {
	if r.Header.Get(crumbField) != f.crumb {
		http.Error(w, "No valid crumb was included in the request", http.StatusForbidden)
		return
	}
	f.mu.Lock()
	delete(f.jobs, job.Name)
	f.mu.Unlock()
	http.Redirect(w, r, "/", http.StatusFound)
}

func (f *fakeJenkins) apiJobs(w http.ResponseWriter, r *http.Request) {
	type apiJob struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	}
	jobs := []apiJob{}
	for _, j := range f.list() {
		jobs = append(jobs, apiJob{Name: j.Name, URL: "http://" + r.Host + j.Path()})
	}
	writeJSON(w, map[string]any{"_class": "hudson.model.Hudson", "jobs": jobs})
}

func (f *fakeJenkins) crumbIssuer(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"crumb": f.crumb, "crumbRequestField": crumbField})
}

func (f *fakeJenkins) resourceBundle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("baseName") == "" {
		http.Error(w, "baseName is required", http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]any{"status": "ok", "data": map[string]string{
		"ok": "Yes", "cancel": "Cancel", "yes": "Yes", "no": "No",
	}})
}

// list returns a copy of jobs sorted by name
func (f *fakeJenkins) list() []fakeJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := make([]fakeJob, 0, len(f.jobs))
	for _, j := range f.jobs {
		res = append(res, *j)
	}
	sort.Slice(res, func(i, j int) bool { return strings.ToLower(res[i].Name) < strings.ToLower(res[j].Name) })
	return res
}

func (f *fakeJenkins) snapshot(job *fakeJob) fakeJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *job
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json;charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Printf("fake jenkins: can't encode response: %v\n", err)
	}
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

const fakeTemplates = `
{{define "header"}}<!DOCTYPE html>
<html lang="en">
<head data-crumb-header="Jenkins-Crumb" data-crumb-value="{{.Crumb}}">
<meta charset="utf-8">
<title>{{.Title}} [Jenkins]</title>
<link rel="stylesheet" href="/static/jenkins.css">
</head>
<body>
<header id="page-header"><a id="jenkins-home-link" href="/">Jenkins</a></header>
<div id="breadcrumbs"><a href="/">Dashboard</a>{{if .Job}} &gt; <a href="{{.Job.Path}}">{{.Job.Name}}</a>{{end}}</div>
<div id="page-body">
{{end}}

{{define "footer"}}</div>
<script src="/static/jenkins.js"></script>
</body>
</html>{{end}}

{{define "dashboard"}}{{template "header" .}}
<div id="side-panel"><div class="task"><a href="/view/all/newJob">New Item</a></div></div>
<div id="main-panel">
{{if .Jobs}}<table id="projectstatus" class="jenkins-table">
<thead><tr><th>Name</th><th>Description</th></tr></thead>
<tbody>
{{range .Jobs}}<tr>
<td><a class="jenkins-table__link model-link" href="{{.Path}}"><span>{{.Name}}</span><button type="button" class="jenkins-menu-dropdown-chevron" aria-label="menu" data-href="{{.Path}}" data-title="Delete Project" data-message="{{.DeleteMessage}}"></button></a></td>
<td class="job-description">{{.Description}}</td>
</tr>
{{end}}</tbody>
</table>
{{else}}<div class="empty-state-block">
<h1>Welcome to Jenkins!</h1>
<p>This page is where your Jenkins jobs will be displayed. To get started, create a job.</p>
<a href="/view/all/newJob">Create a job</a>
</div>
{{end}}</div>
{{template "footer" .}}{{end}}

{{define "login"}}{{template "header" .}}
<div id="main-panel">
<h1>Sign in to Jenkins</h1>
{{if .Error}}<div class="error">{{.Error}}</div>{{end}}
<form method="post" action="/j_spring_security_check">
<label>Username <input name="j_username" type="text" autocomplete="username"></label>
<label>Password <input name="j_password" type="password" autocomplete="current-password"></label>
<button name="Submit" type="submit" class="jenkins-button">Sign in</button>
</form>
</div>
{{template "footer" .}}{{end}}

{{define "newJob"}}{{template "header" .}}
<div id="main-panel">
<form method="post" action="/createItem" id="createItem">
<label for="name">Enter an item name</label>
<input id="name" name="name" type="text" autocomplete="off">
{{if .Error}}<div class="error">{{.Error}}</div>{{end}}
<input type="hidden" name="mode" id="mode">
<ul class="j-item-options">
<li class="hudson_model_FreeStyleProject" data-mode="hudson.model.FreeStyleProject" tabindex="0"><label>Freestyle project</label></li>
</ul>
<button id="ok-button" type="submit" class="jenkins-button" disabled>OK</button>
</form>
</div>
{{template "footer" .}}{{end}}

{{define "job"}}{{template "header" .}}
<div id="side-panel">
<div class="task"><a href="{{.Job.Path}}configure">Configure</a></div>
<div class="task"><a href="#" class="confirmation-link" data-url="{{.Job.Path}}doDelete" data-title="Delete Project" data-message="{{.Job.DeleteMessage}}">Delete Project</a></div>
<div class="task"><a href="{{.Job.Path}}move">Move</a></div>
</div>
<div id="main-panel">
<h1 class="job-index-headline page-headline">{{.Job.Name}}</h1>
<div id="description">{{.Job.Description}}</div>
<div id="description-link"><a href="editDescription">{{if .Job.Description}}Edit description{{else}}Add description{{end}}</a></div>
</div>
{{template "footer" .}}{{end}}

{{define "configure"}}{{template "header" .}}
<div id="main-panel">
<h2>General</h2>
<form method="post" action="{{.Job.Path}}configSubmit">
<label>Description <textarea name="description">{{.Job.Description}}</textarea></label>
<button name="Submit" type="submit" class="jenkins-button">Save</button>
</form>
</div>
{{template "footer" .}}{{end}}

{{define "editDescription"}}{{template "header" .}}
<div id="main-panel">
<form method="post" action="{{.Job.Path}}submitDescription">
<textarea name="description">{{.Job.Description}}</textarea>
<button name="Submit" type="submit" class="jenkins-button">Save</button>
</form>
</div>
{{template "footer" .}}{{end}}

{{define "move"}}{{template "header" .}}
<div id="main-panel">
<form method="post" action="{{.Job.Path}}move/move">
<label>Destination <select name="destination"><option value="/">Jenkins</option></select></label>
<button name="Submit" type="submit" class="jenkins-button">Move</button>
</form>
</div>
{{template "footer" .}}{{end}}
`

const fakeStyle = `
body { font-family: sans-serif; margin: 0; }
#page-header { background: #222; padding: 10px; }
#page-header a { color: #fff; text-decoration: none; font-weight: bold; }
#breadcrumbs { padding: 6px 10px; border-bottom: 1px solid #ddd; }
#page-body { display: flex; }
#side-panel { width: 200px; padding: 10px; }
#main-panel { flex: 1; padding: 10px; }
.jenkins-menu-dropdown-chevron { display: inline-block; width: 16px; height: 16px; margin-left: 6px;
  border: 0; background: #ccc; cursor: pointer; vertical-align: middle; }
.jenkins-dropdown { position: absolute; background: #fff; border: 1px solid #aaa; z-index: 10; }
.jenkins-dropdown__item { display: block; padding: 6px 12px; border: 0; background: none; text-align: left;
  width: 100%; cursor: pointer; }
.j-item-options li { cursor: pointer; padding: 6px; list-style: none; }
.j-item-options li.active { background: #def; }
.error { color: #b00; }
`

const fakeScript = `
(function () {
  var crumbHeader = document.head.dataset.crumbHeader;
  var crumbValue = document.head.dataset.crumbValue;

  function post(url) {
    var headers = {};
    if (crumbHeader) { headers[crumbHeader] = crumbValue; }
    return fetch(url, { method: 'POST', headers: headers, credentials: 'same-origin' });
  }

  function closeDropdowns() {
    document.querySelectorAll('.jenkins-dropdown').forEach(function (d) { d.remove(); });
  }

  function confirmDelete(title, message, url) {
    closeDropdowns();
    var dlg = document.createElement('dialog');
    dlg.className = 'jenkins-dialog';
    var t = document.createElement('div');
    t.className = 'jenkins-dialog__title';
    t.textContent = title;
    var c = document.createElement('div');
    c.className = 'jenkins-dialog__contents';
    c.textContent = message;
    var row = document.createElement('div');
    row.className = 'jenkins-buttons-row';
    var ok = document.createElement('button');
    ok.dataset.id = 'ok';
    ok.className = 'jenkins-button jenkins-button--primary';
    ok.textContent = 'Yes';
    var cancel = document.createElement('button');
    cancel.dataset.id = 'cancel';
    cancel.className = 'jenkins-button';
    cancel.textContent = 'Cancel';
    row.append(ok, cancel);
    dlg.append(t, c, row);
    document.body.append(dlg);
    ok.addEventListener('click', function () {
      ok.disabled = true;
      post(url).then(function () { window.location.assign('/'); });
    });
    cancel.addEventListener('click', function () { dlg.close(); dlg.remove(); });
    dlg.showModal();
  }

  function openDropdown(chevron) {
    closeDropdowns();
    var dd = document.createElement('div');
    dd.className = 'jenkins-dropdown';
    var conf = document.createElement('a');
    conf.className = 'jenkins-dropdown__item';
    conf.href = chevron.dataset.href + 'configure';
    conf.textContent = 'Configure';
    var del = document.createElement('button');
    del.type = 'button';
    del.className = 'jenkins-dropdown__item';
    del.textContent = 'Delete Project';
    del.addEventListener('click', function () {
      confirmDelete(chevron.dataset.title, chevron.dataset.message, chevron.dataset.href + 'doDelete');
    });
    dd.append(conf, del);
    var r = chevron.getBoundingClientRect();
    dd.style.left = (r.left + window.scrollX) + 'px';
    dd.style.top = (r.bottom + window.scrollY) + 'px';
    document.body.append(dd);
  }

  document.addEventListener('click', function (e) {
    var chevron = e.target.closest('.jenkins-menu-dropdown-chevron');
    if (chevron) {
      e.preventDefault();
      e.stopPropagation();
      openDropdown(chevron);
      return;
    }
    var link = e.target.closest('a.confirmation-link');
    if (link) {
      e.preventDefault();
      confirmDelete(link.dataset.title, link.dataset.message, link.dataset.url);
      return;
    }
    if (!e.target.closest('.jenkins-dropdown')) {
      closeDropdowns();
    }
  }, true);

  var form = document.getElementById('createItem');
  if (form) {
    var name = document.getElementById('name');
    var mode = document.getElementById('mode');
    var okButton = document.getElementById('ok-button');
    var update = function () { okButton.disabled = !(name.value.trim() && mode.value); };
    name.addEventListener('input', update);
    form.querySelectorAll('.j-item-options li').forEach(function (li) {
      li.addEventListener('click', function () {
        form.querySelectorAll('.j-item-options li').forEach(function (x) { x.classList.remove('active'); });
        li.classList.add('active');
        mode.value = li.dataset.mode;
        update();
      });
    });
  }
})();
`

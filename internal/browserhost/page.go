package browserhost

import (
	"html/template"
	"net/http"

	"uniq/cli/internal/logging"
	"uniq/cli/internal/loginview"
)

type pageData struct {
	Token        string
	ButtonTarget string
	Target       string
}

var loginPage = template.Must(template.New("login").Parse(`<!doctype html>
<html lang="en" data-theme="dark">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Sign in to UniQ</title>
<style>
  html[data-theme="light"] { background: #f7f7f8; color: #1a1a1a; }
  html[data-theme="dark"] { background: #1a1a1a; color: #f7f7f8; }
  body { font-family: system-ui, sans-serif; display: flex; min-height: 100vh; margin: 0; align-items: center; justify-content: center; }
  main { width: 22rem; padding: 2rem; border-radius: 12px; background: #fff; box-shadow: 0 4px 24px rgba(0,0,0,.08); }
  #auth-error { color: #b42318; min-height: 1.25rem; margin-top: 1rem; }
  #loading { display: none; margin-top: 1rem; }
  #toasts { position: fixed; top: 1rem; right: 1rem; }
  .toast { padding: .75rem 1rem; margin-bottom: .5rem; border-radius: 8px; color: #fff; }
  .toast.success { background: #12b76a; }
  .toast.error { background: #d92d20; }
</style>
</head>
<body>
<main>
  <h1>Sign in</h1>
  <p>Continue with your Google account to use the UniQ CLI.</p>
  <div id="{{.ButtonTarget}}"></div>
  <div id="loading">Signing in&hellip;</div>
  <div id="auth-error" role="alert"></div>
</main>
<div id="toasts"></div>
<script>
(function () {
  'use strict';
  var token = {{.Token}};
  var proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
  var ws = new WebSocket(proto + '//' + location.host + '/ws?s=' + encodeURIComponent(token));

  function send(ev) {
    if (ws.readyState === WebSocket.OPEN) ws.send(JSON.stringify(ev));
  }

  function insertScript(src) {
    var existing = document.querySelector('script[src="' + src + '"]');
    if (existing && existing.dataset.loaded === 'true') {
      send({type: 'script_load', src: src});
      return;
    }
    if (existing) return;
    var s = document.createElement('script');
    s.src = src;
    s.async = true;
    s.defer = true;
    s.onload = function () {
      s.dataset.loaded = 'true';
      flushWidget();
      send({type: 'script_load', src: src});
    };
    s.onerror = function () { send({type: 'script_error', src: src}); };
    document.head.appendChild(s);
  }

  // Widget calls wait for this page's own copy of the identity script.
  var widgetQueue = [];
  function widgetReady() {
    return window.google && google.accounts && google.accounts.id;
  }
  function withWidget(fn) {
    if (widgetReady()) fn(); else widgetQueue.push(fn);
  }
  function flushWidget() {
    while (widgetReady() && widgetQueue.length) widgetQueue.shift()();
  }

  function toast(level, message) {
    var el = document.createElement('div');
    el.className = 'toast ' + level;
    el.textContent = message;
    document.getElementById('toasts').appendChild(el);
    setTimeout(function () { el.remove(); }, 4000);
  }

  var handlers = {
    insert_script: function (c) { insertScript(c.src); },
    initialize: function (c) {
      withWidget(function () {
        google.accounts.id.initialize({
          client_id: c.client_id,
          callback: function (r) {
            send({type: 'credential', credential: r.credential, select_by: r.select_by});
          }
        });
      });
    },
    render_button: function (c) {
      withWidget(function () {
        google.accounts.id.renderButton(document.getElementById(c.target), c.options);
      });
    },
    toast: function (c) { toast(c.level, c.message); },
    theme: function (c) { document.documentElement.dataset.theme = c.theme; },
    state: function (c) {
      var st = c.state || {};
      document.getElementById('loading').style.display = st.loading ? 'block' : 'none';
      document.getElementById('auth-error').textContent = st.auth_error || '';
    },
    navigate: function (c) {
      if (c.replace) location.replace(c.url); else location.assign(c.url);
    }
  };

  ws.onmessage = function (e) {
    var c;
    try { c = JSON.parse(e.data); } catch (err) { return; }
    var h = handlers[c.type];
    if (h) h(c);
  };
  ws.onclose = function () {
    document.getElementById('auth-error').textContent = 'The CLI is no longer listening. Run "uniq login" again.';
  };
})();
</script>
</body>
</html>
`))

var donePage = template.Must(template.New("done").Parse(`<!doctype html>
<html lang="en" data-theme="light">
<head>
<meta charset="utf-8">
<title>Signed in to UniQ</title>
<style>
  body { font-family: system-ui, sans-serif; display: flex; min-height: 100vh; margin: 0; align-items: center; justify-content: center; background: #f7f7f8; }
</style>
</head>
<body>
<main>
  <h1>You're signed in</h1>
  <p>The CLI will continue to <code>{{.Target}}</code>. You can close this tab.</p>
</main>
</body>
</html>
`))

func (h *Host) servePage(w http.ResponseWriter, _ *http.Request) {
	h.render(w, loginPage, pageData{Token: h.token, ButtonTarget: loginview.ButtonTarget})
}

func (h *Host) serveDone(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("to")
	if target == "" {
		target = loginview.DefaultLanding
	}
	h.render(w, donePage, pageData{Target: target})
	h.finishedOnce.Do(func() { close(h.finished) })
}

func (h *Host) render(w http.ResponseWriter, t *template.Template, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.Execute(w, data); err != nil {
		h.log.Error("render login page", logging.Err(h.log, err))
	}
}

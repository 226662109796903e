// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package webui

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>autolatex</title>
<style>
  body { font-family: sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; }
  section { border: 1px solid #ccc; border-radius: 6px; padding: 1rem; margin-bottom: 1.5rem; }
  pre { background: #f5f5f5; padding: 0.5rem; overflow-x: auto; max-height: 20rem; }
  .ok { color: #1a7f37; }
  .fail { color: #b3261e; }
  ul { padding-left: 1.2rem; }
</style>
</head>
<body>
<h1>autolatex</h1>

<section>
  <h2>Compile a document</h2>
  <p>Upload a .tex file, or a .txt file that begins with a LaTeX preamble.</p>
  <form id="compile-form">
    <input type="file" name="file" accept=".tex,.txt" required>
    <button type="submit">Compile</button>
  </form>
  <p id="compile-status"></p>
  <details><summary>Compiler log</summary><pre id="compile-log"></pre></details>
</section>

<section>
  <h2>Batch compile from GitHub</h2>
  <form id="batch-form">
    <p><input type="url" id="repo-url" placeholder="https://github.com/owner/repo" size="50" required></p>
    <p><textarea id="targets" rows="4" cols="50" placeholder="one .tex path per line" required></textarea></p>
    <button type="submit">Run batch</button>
  </form>
  <ul id="batch-progress"></ul>
  <p id="batch-summary"></p>
</section>

<script>
document.getElementById('compile-form').addEventListener('submit', async (ev) => {
  ev.preventDefault();
  const status = document.getElementById('compile-status');
  const log = document.getElementById('compile-log');
  status.textContent = 'Compiling…';
  log.textContent = '';
  const resp = await fetch('/compile', { method: 'POST', body: new FormData(ev.target) });
  const body = await resp.json();
  log.textContent = body.log || '';
  if (resp.ok) {
    status.innerHTML = '<span class="ok">Done:</span> <a href="' + body.artifact + '">' + body.artifact + '</a>';
  } else {
    status.innerHTML = '<span class="fail">' + (body.error || 'compilation failed') + '</span>';
  }
});

document.getElementById('batch-form').addEventListener('submit', (ev) => {
  ev.preventDefault();
  const progress = document.getElementById('batch-progress');
  const summary = document.getElementById('batch-summary');
  progress.innerHTML = '';
  summary.textContent = '';
  const proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
  const ws = new WebSocket(proto + location.host + '/ws/batch');
  const items = {};
  ws.onopen = () => ws.send(JSON.stringify({
    repo_url: document.getElementById('repo-url').value,
    targets: document.getElementById('targets').value.split('\n').map(s => s.trim()).filter(Boolean),
  }));
  ws.onmessage = (msg) => {
    const ev = JSON.parse(msg.data);
    if (ev.type === 'start') {
      const li = document.createElement('li');
      li.textContent = ev.target + ' …';
      items[ev.target] = li;
      progress.appendChild(li);
    } else if (ev.type === 'done') {
      const li = items[ev.target] || progress.appendChild(document.createElement('li'));
      li.innerHTML = ev.success
        ? ev.target + ': <a class="ok" href="' + ev.artifact + '">PDF</a>'
        : ev.target + ': <span class="fail">failed</span>';
    } else if (ev.type === 'summary') {
      summary.textContent = ev.error
        ? ev.error
        : ev.succeeded + ' compiled, ' + ev.failed + ' failed';
      ws.close();
    }
  };
});
</script>
</body>
</html>
`

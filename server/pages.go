package server

import "html/template"

var pages = template.Must(template.New("status").Parse(statusPage))

func init() {
	template.Must(pages.New("predict").Parse(predictPage))
}

const statusPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Plant Classifier - Status</title>
<style>
body { font-family: sans-serif; background: #f4f7f4; margin: 0; padding: 40px; }
.container { max-width: 640px; margin: 0 auto; background: #fff; border-radius: 12px; padding: 32px; box-shadow: 0 8px 24px rgba(0,0,0,.1); }
.badge { display: inline-block; padding: 6px 14px; border-radius: 16px; color: #fff; font-weight: bold; }
.ok { background: #48bb78; } .down { background: #e53e3e; }
.item { display: flex; justify-content: space-between; padding: 10px 0; border-bottom: 1px solid #eee; }
.label { color: #666; } code { background: #eee; padding: 2px 6px; border-radius: 4px; }
</style>
</head>
<body>
<div class="container">
  <h1>Plant Classifier API</h1>
  <p><span class="badge ok">API ACTIVE</span></p>
  <div class="item"><span class="label">Model status</span>
    {{if .Loaded}}<span class="badge ok">Loaded</span>{{else}}<span class="badge down">Not loaded</span>{{end}}</div>
  <div class="item"><span class="label">Model path</span><code>{{.Path}}</code></div>
  <div class="item"><span class="label">Input size</span><span>{{.InputWidth}}x{{.InputHeight}} pixels</span></div>
  <h3>Endpoints</h3>
  <ul>
    <li><code>GET /home</code> status page (this page)</li>
    <li><code>GET /predict</code> prediction page</li>
    <li><code>POST /predict</code> classify an image (<code>image_file</code> or <code>image_url</code>)</li>
    <li><code>GET /health</code> health check</li>
    <li><code>GET /metrics</code> Prometheus metrics</li>
  </ul>
</div>
</body>
</html>`

const predictPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Plant Classifier</title>
<style>
body { font-family: sans-serif; background: #f4f7f4; margin: 0; padding: 40px; }
.container { max-width: 640px; margin: 0 auto; background: #fff; border-radius: 12px; padding: 32px; box-shadow: 0 8px 24px rgba(0,0,0,.1); }
form { margin: 16px 0; } input[type=url] { width: 70%; padding: 8px; }
button { padding: 8px 18px; border: 0; border-radius: 6px; background: #667eea; color: #fff; cursor: pointer; }
#preview { max-width: 100%; max-height: 320px; display: none; margin: 16px auto; border-radius: 8px; }
#result { margin-top: 20px; padding: 16px; border-radius: 8px; display: none; }
.success { background: #f0fff4; border-left: 4px solid #48bb78; }
.error { background: #fff5f5; border-left: 4px solid #e53e3e; }
</style>
</head>
<body>
<div class="container">
  <h1>Plant Classifier</h1>
  <form id="upload">
    <input type="file" name="image_file" accept="image/*" required>
    <button type="submit">Classify upload</button>
  </form>
  <form id="byurl">
    <input type="url" name="image_url" placeholder="https://example.com/leaf.jpg" required>
    <button type="submit">Classify URL</button>
  </form>
  <img id="preview" alt="preview">
  <div id="result"></div>
</div>
<script>
const result = document.getElementById('result');
const preview = document.getElementById('preview');
function show(data) {
  result.style.display = 'block';
  result.className = data.success ? 'success' : 'error';
  result.textContent = data.success ? data.class + ' (' + data.confidence + ')' : data.error;
}
async function send(body, headers) {
  result.style.display = 'block';
  result.className = '';
  result.textContent = 'Classifying...';
  try {
    const resp = await fetch('/predict', { method: 'POST', body: body, headers: headers });
    show(await resp.json());
  } catch (e) {
    show({ success: false, error: String(e) });
  }
}
document.getElementById('upload').addEventListener('submit', e => {
  e.preventDefault();
  const file = e.target.image_file.files[0];
  preview.src = URL.createObjectURL(file);
  preview.style.display = 'block';
  const fd = new FormData();
  fd.append('image_file', file);
  send(fd, {});
});
document.getElementById('byurl').addEventListener('submit', e => {
  e.preventDefault();
  const url = e.target.image_url.value;
  preview.src = url;
  preview.style.display = 'block';
  send(JSON.stringify({ image_url: url }), { 'Content-Type': 'application/json' });
});
</script>
</body>
</html>`

package web

// Single-page dashboard shell: connection status, live prices and the
// filterable trade table. All heavy lifting happens server-side.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Polyboard</title>
  <style>
    :root { --bg:#ffffff; --ink:#111111; --ink-mid:#4d4d4d; --panel:#f6f6f6; }
    * { box-sizing:border-box; }
    body {
      margin:0; padding:2rem; background:var(--bg); color:var(--ink);
      font-family:'Space Mono','JetBrains Mono',monospace;
    }
    #app {
      max-width:1100px; margin:0 auto; background:var(--panel);
      border:3px solid var(--ink); padding:1.5rem;
      box-shadow:10px 10px 0 rgba(0,0,0,.15);
    }
    header { display:flex; justify-content:space-between; align-items:center; gap:1rem; }
    .eyebrow { text-transform:uppercase; letter-spacing:.2em; font-size:.7rem; margin:0; }
    .status {
      font-size:.65rem; text-transform:uppercase; letter-spacing:.1em;
      border:2px solid var(--ink); padding:.4rem .9rem; background:#fff;
    }
    .prices { display:flex; flex-wrap:wrap; gap:.5rem; margin:1rem 0; }
    .pill {
      font-size:.6rem; letter-spacing:.1em; padding:.35rem .7rem;
      border:2px solid var(--ink); background:#fff;
    }
    .controls { display:flex; flex-wrap:wrap; gap:.5rem; margin:1rem 0; }
    .controls input, .controls select {
      font-family:inherit; font-size:.7rem; padding:.4rem; border:2px solid var(--ink);
    }
    table { width:100%; border-collapse:collapse; font-size:.7rem; }
    th, td { border:1px solid var(--ink); padding:.4rem .6rem; text-align:right; }
    th { background:#fff; text-transform:uppercase; letter-spacing:.08em; cursor:pointer; }
    td:first-child, th:first-child { text-align:left; }
    .neg { color:#d7263d; }
    .pos { color:#1b9aaa; }
    .empty { border:2px dashed var(--ink-mid); padding:1.5rem; text-align:center;
      font-size:.7rem; text-transform:uppercase; color:var(--ink-mid); }
  </style>
</head>
<body>
  <div id="app">
    <header>
      <p class="eyebrow">polyboard</p>
      <div id="conn" class="status">connecting…</div>
    </header>
    <div id="prices" class="prices"></div>
    <div class="controls">
      <input id="search" placeholder="search" />
      <select id="sign">
        <option value="any">all</option>
        <option value="profit">profit</option>
        <option value="loss">loss</option>
      </select>
      <select id="sort">
        <option value="timestamp">time</option>
        <option value="profit_loss">p&amp;l</option>
        <option value="cumulative_profit">cum. p&amp;l</option>
        <option value="security">security</option>
      </select>
      <select id="order">
        <option value="asc">asc</option>
        <option value="desc">desc</option>
      </select>
    </div>
    <div id="table"></div>
  </div>
<script>
const conn = document.getElementById('conn');
const pricesEl = document.getElementById('prices');
const tableEl = document.getElementById('table');

function connectSSE(){
  const source = new EventSource('/quotes/stream');
  source.addEventListener('quotes', (event) => {
    try {
      const u = JSON.parse(event.data);
      conn.textContent = u.state + (u.last_error ? ' — ' + u.last_error : '');
      pricesEl.innerHTML = '';
      for (const [id, price] of Object.entries(u.prices || {})) {
        const pill = document.createElement('span');
        pill.className = 'pill';
        pill.textContent = id.slice(0, 8) + '… ' + price;
        pricesEl.appendChild(pill);
      }
    } catch (err) { console.error('quote payload parse', err); }
  });
  source.addEventListener('error', () => {
    conn.textContent = 'reconnecting…';
    source.close();
    setTimeout(connectSSE, 2000);
  });
}

async function loadAnalysis(){
  const params = new URLSearchParams({
    search: document.getElementById('search').value,
    sign: document.getElementById('sign').value,
    sort: document.getElementById('sort').value,
    order: document.getElementById('order').value
  });
  const resp = await fetch('/api/analysis?' + params);
  if (!resp.ok) { tableEl.innerHTML = '<div class="empty">analysis unavailable</div>'; return; }
  const data = await resp.json();
  const rows = data.rows || [];
  if (rows.length === 0) { tableEl.innerHTML = '<div class="empty">no trades</div>'; return; }
  let html = '<table><tr><th>time</th><th>security</th><th>buy</th><th>sell</th>' +
    '<th>p&amp;l</th><th>cum. p&amp;l</th><th>equity</th></tr>';
  for (const r of rows) {
    const pnl = parseFloat(r.profit_loss ?? 0);
    html += '<tr><td>' + (r.timestamp || '—') + '</td><td>' + r.security + '</td>' +
      '<td>' + (r.buy_price ?? '—') + '</td><td>' + (r.sell_price ?? '—') + '</td>' +
      '<td class="' + (pnl < 0 ? 'neg' : 'pos') + '">' + pnl.toFixed(4) + '</td>' +
      '<td>' + r.cumulative_profit + '</td><td>' + r.cumulative_equity + '</td></tr>';
  }
  tableEl.innerHTML = html + '</table>';
}

for (const id of ['search', 'sign', 'sort', 'order']) {
  document.getElementById(id).addEventListener('change', loadAnalysis);
}
document.getElementById('search').addEventListener('input', loadAnalysis);

connectSSE();
loadAnalysis();
setInterval(loadAnalysis, 10000);
</script>
</body>
</html>`

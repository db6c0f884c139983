package server

// indexHTML is the demo page: three compute buttons, a progress bar driven
// by polling the /jobs route, and a result panel. The page is a thin shell
// over the compute and progress endpoints; all state lives server-side.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8" />
<meta name="viewport" content="width=device-width, initial-scale=1.0" />
<title>sumforge</title>
<script src="https://cdn.tailwindcss.com"></script>
</head>
<body class="bg-gray-100 flex flex-col items-center justify-center min-h-screen p-4">
<h1 class="text-3xl font-bold mb-6 text-center">sumforge</h1>

<div class="flex gap-4 mb-4">
    <button class="bg-blue-500 hover:bg-blue-700 text-white font-bold py-2 px-4 rounded" onclick="compute(10000000)">Compute 10M</button>
    <button class="bg-green-500 hover:bg-green-700 text-white font-bold py-2 px-4 rounded" onclick="compute(50000000)">Compute 50M</button>
    <button class="bg-purple-500 hover:bg-purple-700 text-white font-bold py-2 px-4 rounded" onclick="compute(100000000)">Compute 100M</button>
</div>

<div class="w-full max-w-lg">
    <div class="relative w-full h-4 bg-gray-300 rounded mb-2">
        <div id="progress" class="absolute top-0 left-0 h-4 bg-blue-500 rounded w-0"></div>
    </div>
    <div id="eta" class="text-sm text-gray-600 text-center"></div>
</div>

<div id="result" class="text-lg font-mono whitespace-pre-wrap text-center mt-4"></div>

<script>
async function pollProgress() {
    try {
        const res = await fetch('/jobs');
        const body = await res.json();
        const running = (body.jobs || []).filter(j => j.status === 'running');
        if (running.length === 0) {
            return;
        }
        // Track the most recent submission: the one with the least progress.
        const job = running.reduce((a, b) => a.fraction < b.fraction ? a : b);
        document.getElementById('progress').style.width = (job.fraction * 100) + '%';
        document.getElementById('eta').textContent = job.eta ? 'ETA ' + job.eta : '';
    } catch (e) {
        // Polling is best-effort; the compute response is authoritative.
    }
}

async function compute(size) {
    const progressBar = document.getElementById('progress');
    progressBar.style.width = '0%';
    progressBar.classList.remove('bg-green-500');
    progressBar.classList.add('bg-blue-500');
    document.getElementById('result').textContent = 'Computing ' + size.toLocaleString() + ' numbers...';

    const interval = setInterval(pollProgress, 100);

    try {
        const res = await fetch('/compute?size=' + size);
        const body = await res.json();
        if (!res.ok) {
            document.getElementById('result').textContent = 'Error: ' + (body.error || res.status);
            return;
        }
        document.getElementById('result').textContent =
            'Processed ' + body.size_used.toLocaleString() + ' numbers\n' +
            'Result: ' + body.result + '\n' +
            'Time: ' + body.elapsed;
    } finally {
        clearInterval(interval);
        progressBar.style.width = '100%';
        progressBar.classList.remove('bg-blue-500');
        progressBar.classList.add('bg-green-500');
        document.getElementById('eta').textContent = '';
    }
}
</script>
</body>
</html>
`

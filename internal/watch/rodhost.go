package watch

import (
	"github.com/go-rod/rod"
)

// RodHost drives a live browser tab as the watchdog's Host. The widget
// itself is plain DOM built by injected script; its search/refresh/info
// actions call back into Go through bindings exposed on the page (see
// cmd/watch.go).
type RodHost struct {
	page *rod.Page
}

func NewRodHost(page *rod.Page) *RodHost {
	return &RodHost{page: page}
}

func (h *RodHost) Location() (string, error) {
	info, err := h.page.Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (h *RodHost) WidgetPresent() bool {
	res, err := h.page.Eval(`() => !!document.getElementById('backshelf-widget')`)
	if err != nil {
		return false
	}
	return res.Value.Bool()
}

func (h *RodHost) MountReady() bool {
	res, err := h.page.Eval(`() => {
		const m = document.querySelector('main');
		return !!m && m.children.length > 0;
	}`)
	if err != nil {
		return false
	}
	return res.Value.Bool()
}

func (h *RodHost) Inject(username string) error {
	_, err := h.page.Eval(widgetJS, username)
	return err
}

func (h *RodHost) Remove() {
	_, _ = h.page.Eval(`() => {
		const w = document.getElementById('backshelf-widget');
		if (w) w.remove();
		const m = document.querySelector('main');
		if (m) m.classList.remove('has-extension');
	}`)
}

// widgetJS builds the search widget and wires it to the exposed Go
// bindings. Kept deliberately plain: one container, a refresh button, a
// search box, and a result list.
const widgetJS = `(user) => {
	if (document.getElementById('backshelf-widget')) return;
	const main = document.querySelector('main');
	if (!main) return;

	const box = document.createElement('div');
	box.id = 'backshelf-widget';
	box.style.cssText = 'position:relative;max-width:600px;margin:10px auto;padding:16px;' +
		'border-radius:8px;background:#1e2126;border:1px solid #2a2d35;' +
		'font-size:0.95em;color:#e5e7eb;';
	box.innerHTML =
		'<div style="display:flex;align-items:center;gap:8px;margin-bottom:8px;">' +
		'<button id="backshelf-refresh" style="padding:6px 12px;background:#2563eb;color:#fff;' +
		'border:none;border-radius:6px;cursor:pointer;">Update user list</button>' +
		'<input id="backshelf-input" type="text" placeholder="Search game..." autocomplete="off" ' +
		'spellcheck="false" style="flex:1;padding:8px 12px;background:#16181c;color:#e5e7eb;' +
		'border:1px solid #2a2d35;border-radius:6px;outline:none;">' +
		'</div>' +
		'<div id="backshelf-message" style="font-size:0.85em;color:#9ca3af;"></div>' +
		'<div id="backshelf-cache-info" style="font-size:0.8em;color:#6b7280;text-align:center;"></div>' +
		'<ul id="backshelf-results" style="list-style:none;padding:0;margin:8px 0 0 0;' +
		'max-height:300px;overflow-y:auto;"></ul>';

	main.prepend(box);
	main.classList.add('has-extension');

	const input = box.querySelector('#backshelf-input');
	const results = box.querySelector('#backshelf-results');
	const message = box.querySelector('#backshelf-message');
	const cacheInfo = box.querySelector('#backshelf-cache-info');

	const refreshInfo = () => {
		window.backshelfCacheInfo({user}).then(r => { cacheInfo.textContent = r.message; });
	};

	const render = (games) => {
		results.innerHTML = '';
		for (const g of games || []) {
			const li = document.createElement('li');
			li.style.cssText = 'padding:8px 10px;border-bottom:1px solid #2a2d35;';
			const strong = document.createElement('strong');
			strong.textContent = g.title;
			li.appendChild(strong);
			li.appendChild(document.createTextNode(' (' + g.stars + ') '));
			if (g.url) {
				const a = document.createElement('a');
				a.href = g.url;
				a.target = '_blank';
				a.textContent = 'link';
				a.style.color = '#60a5fa';
				li.appendChild(a);
			}
			results.appendChild(li);
		}
	};

	input.addEventListener('input', () => {
		const q = input.value;
		if (!q.trim()) { render([]); return; }
		window.backshelfSearch({user, query: q}).then(r => render(r.games));
	});

	box.querySelector('#backshelf-refresh').addEventListener('click', () => {
		message.textContent = 'Loading...';
		window.backshelfRefresh({user}).then(r => {
			message.textContent = r.message;
			refreshInfo();
		});
	});

	refreshInfo();
}`

// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"path/filepath"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"masonry-gallery/internal/app"
	"masonry-gallery/internal/catalog"
	"masonry-gallery/internal/logging"
	"masonry-gallery/internal/panzoom"
	"masonry-gallery/internal/render"
	"masonry-gallery/internal/version"
	"masonry-gallery/ui/gallery"
	"masonry-gallery/ui/prefs"
	"masonry-gallery/ui/viewer"
)

var columnChoices = []string{"3", "4", "5", "6"}

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app   fyne.App
	state *app.State
	prefs *prefs.Prefs
	log   *zap.Logger

	grid      *gallery.Grid
	viewer    *viewer.Viewer
	statusBar *widget.Label

	gridTools   *fyne.Container
	viewerTools *fyne.Container
	zoomLabel   *widget.Label
	columns     *widget.Select
	mode        *widget.RadioGroup
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow("Gallery")

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		prefs:  p,
		log:    logging.Named("ui"),
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.setupKeys()

	w := p.Float(prefs.KeyWindowWidth, 1200)
	h := p.Float(prefs.KeyWindowHeight, 800)
	mw.Resize(fyne.NewSize(float32(w), float32(h)))
	mw.SetOnClosed(mw.onClosed)
	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	cfg := mw.state.Config()

	mw.grid = gallery.New(mw.state, cfg.Debounce.Std())
	mw.grid.OnOpen(mw.openImage)
	mw.grid.OnChange(mw.refreshStatus)

	mw.viewer = viewer.New(panzoom.Options{
		ZoomMin:     cfg.ZoomMin,
		ZoomMax:     cfg.ZoomMax,
		ZoomStep:    cfg.ZoomStep,
		SettleDelay: cfg.SettleDelay.Std(),
	})
	mw.viewer.OnZoomChange(func(z float64) {
		mw.zoomLabel.SetText(fmt.Sprintf("%.0f%%", z*100))
	})
	mw.viewer.Hide()

	mw.statusBar = widget.NewLabel("Open a folder to begin")
	mw.gridTools = mw.createGridToolbar()
	mw.viewerTools = mw.createViewerToolbar()
	mw.viewerTools.Hide()

	content := container.NewBorder(
		container.NewStack(mw.gridTools, mw.viewerTools), // top
		container.NewPadded(mw.statusBar),                // bottom
		nil,                                              // left
		nil,                                              // right
		container.NewStack(mw.grid, mw.viewer),           // center
	)
	mw.SetContent(content)
}

// createGridToolbar creates the folder, column and filter controls.
func (mw *MainWindow) createGridToolbar() *fyne.Container {
	openBtn := widget.NewButton("Open Folder...", mw.onOpenFolder)
	reloadBtn := widget.NewButton("Reload", mw.onReload)

	mw.columns = widget.NewSelect(columnChoices, func(s string) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return
		}
		mw.state.SetColumns(n)
		mw.prefs.SetColumns(n)
	})
	mw.columns.SetSelected(strconv.Itoa(mw.state.Columns()))

	mw.mode = widget.NewRadioGroup([]string{catalog.ViewAll.String(), catalog.ViewSelected.String()}, func(s string) {
		if s == catalog.ViewSelected.String() {
			mw.state.SetViewMode(catalog.ViewSelected)
		} else {
			mw.state.SetViewMode(catalog.ViewAll)
		}
	})
	mw.mode.Horizontal = true
	mw.mode.Required = true
	mw.mode.SetSelected(catalog.ViewAll.String())

	clearBtn := widget.NewButton("Clear Selection", mw.state.ClearSelection)

	return container.NewHBox(
		openBtn,
		reloadBtn,
		widget.NewSeparator(),
		widget.NewLabel("Columns:"),
		mw.columns,
		widget.NewSeparator(),
		mw.mode,
		clearBtn,
	)
}

// createViewerToolbar creates the back and zoom controls.
func (mw *MainWindow) createViewerToolbar() *fyne.Container {
	mw.zoomLabel = widget.NewLabel("100%")
	return container.NewHBox(
		widget.NewButton("Back", mw.closeImage),
		widget.NewSeparator(),
		widget.NewButton("<", func() { mw.navigate(-1) }),
		widget.NewButton(">", func() { mw.navigate(1) }),
		widget.NewSeparator(),
		widget.NewLabel("Zoom:"),
		widget.NewButton("-", mw.viewer.ZoomOut),
		widget.NewButton("+", mw.viewer.ZoomIn),
		widget.NewButton("Fit", mw.viewer.ResetZoom),
		mw.zoomLabel,
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Folder...", mw.onOpenFolder),
		fyne.NewMenuItem("Reload", mw.onReload),
	)
	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)
	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, helpMenu))
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	updateTitle := func(data interface{}) {
		n, _ := data.(int)
		mw.SetTitle(fmt.Sprintf("Gallery - %s (%d images)", filepath.Base(mw.state.Folder()), n))
		mw.refreshStatus()
	}
	mw.state.On(app.EventCatalogLoaded, updateTitle)
	mw.state.On(app.EventCatalogReloaded, updateTitle)

	mw.state.On(app.EventError, func(data interface{}) {
		if err, ok := data.(error); ok {
			dialog.ShowError(err, mw.Window)
		}
	})

	mw.state.On(app.EventSelectionChanged, func(interface{}) {
		mw.refreshStatus()
	})
}

// setupKeys wires keyboard navigation for the single image view.
func (mw *MainWindow) setupKeys() {
	mw.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if mw.state.Current() < 0 {
			return
		}
		switch ev.Name {
		case fyne.KeyLeft:
			mw.navigate(-1)
		case fyne.KeyRight:
			mw.navigate(1)
		case fyne.KeyEscape:
			mw.closeImage()
		case fyne.KeyPlus, fyne.KeyEqual:
			mw.viewer.ZoomIn()
		case fyne.KeyMinus:
			mw.viewer.ZoomOut()
		}
	})
}

// LoadFolder opens dir and remembers it.
func (mw *MainWindow) LoadFolder(dir string) {
	if err := mw.state.LoadFolder(dir); err != nil {
		// the error event already showed a dialog
		mw.updateStatus("Failed to open " + dir)
		return
	}
	mw.prefs.SetLastFolder(dir)
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// refreshStatus shows pipeline statistics.
func (mw *MainWindow) refreshStatus() {
	st := mw.state.Stats()
	f := mw.grid.Frame()
	mw.updateStatus(fmt.Sprintf(
		"%d images, %d selected | thumbnails %d/%d cached, %d pending, %d failed | queue %d | shown %d, loading %d, broken %d",
		st.Images, mw.state.SelectedCount(),
		st.Thumbs.Cache.Len, st.Thumbs.Cache.Capacity, st.Thumbs.Pending, st.Thumbs.Failed,
		st.Queue, f.Count(render.OpImage), f.Count(render.OpPlaceholder), f.Count(render.OpBroken),
	))
}

// getLastDir returns the last opened folder as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.LastFolder()
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

func (mw *MainWindow) onOpenFolder() {
	fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		mw.LoadFolder(uri.Path())
	}, mw.Window)
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onReload() {
	if err := mw.state.Reload(); err != nil {
		mw.log.Warn("reload failed", zap.Error(err))
	}
}

func (mw *MainWindow) openImage(index int) {
	img, err := mw.state.Open(index)
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.grid.Hide()
	mw.gridTools.Hide()
	mw.viewerTools.Show()
	mw.viewer.Show()
	mw.viewer.SetImage(mw.state.CurrentPath(), img)
	mw.zoomLabel.SetText("100%")
	mw.updateStatus(fmt.Sprintf("%d / %d  %s", index+1, len(mw.state.Visible()), filepath.Base(mw.state.CurrentPath())))
}

func (mw *MainWindow) navigate(delta int) {
	index, img, err := mw.state.Navigate(delta)
	if err != nil {
		mw.log.Debug("navigate failed", zap.Error(err))
		return
	}
	mw.viewer.SetImage(mw.state.CurrentPath(), img)
	mw.zoomLabel.SetText("100%")
	mw.updateStatus(fmt.Sprintf("%d / %d  %s", index+1, len(mw.state.Visible()), filepath.Base(mw.state.CurrentPath())))
}

func (mw *MainWindow) closeImage() {
	mw.state.Close()
	mw.viewer.Clear()
	mw.viewer.Hide()
	mw.viewerTools.Hide()
	mw.gridTools.Show()
	mw.grid.Show()
	mw.grid.Invalidate()
}

func (mw *MainWindow) onClosed() {
	size := mw.Canvas().Size()
	mw.prefs.SetFloat(prefs.KeyWindowWidth, float64(size.Width))
	mw.prefs.SetFloat(prefs.KeyWindowHeight, float64(size.Height))
	if err := mw.prefs.Save(); err != nil {
		mw.log.Warn("failed to save preferences", zap.Error(err))
	}
	mw.grid.Stop()
	mw.viewer.Stop()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About Gallery",
		fmt.Sprintf("Masonry Gallery v%s\n\n"+
			"Browse large image folders in a masonry grid.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}

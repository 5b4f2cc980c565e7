package ui

import (
	"tubebridge/internal/model"
	"tubebridge/internal/progress"
)

type jobUpdateMsg struct {
	U progress.Update
}

type jobLogMsg struct {
	L progress.Log
}

type jobResultMsg struct {
	R progress.Result
}

type runDoneMsg struct {
	Results []model.DownloadResult
}

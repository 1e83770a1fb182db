package wal

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"sync"
)

// rw-r--r-- (擁有者讀寫，其他人唯讀)
const FileMode fs.FileMode = 0644

// WAL 以 JSON Lines 格式追加寫入，每筆寫入後 fsync
// 一行即一筆完整紀錄；檔尾若有寫到一半的行，重放時會被截掉
type WAL struct {
	file *os.File
	mu   sync.Mutex
}

// Open 開啟或建立一個 WAL 檔案
// O_APPEND 每次寫入時自動跳到文件末尾
func Open(path string) (*WAL, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, FileMode)
	if err != nil {
		return nil, err
	}
	return &WAL{file: file}, nil
}

// Append 寫入一筆紀錄並刷入硬碟，回傳成功才算 commit
func (w *WAL) Append(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b = append(b, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.file.Write(b); err != nil {
		return err
	}
	return w.file.Sync()
}

// Close 關閉檔案
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// Replay 從頭依序讀取所有紀錄
// callback 每次收到一行原始 JSON，避免一次將所有資料載入記憶體
func (w *WAL) Replay(callback func(raw json.RawMessage) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	decoder := json.NewDecoder(w.file)
	// 最後一筆完整紀錄的結尾位置
	var committed int64
	for {
		var raw json.RawMessage
		err := decoder.Decode(&raw)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			// 最後一筆沒寫完 (寫入途中當機)，視為未 commit
			return w.truncate(committed)
		}
		if err != nil {
			return err
		}
		committed = decoder.InputOffset()
		if err := callback(raw); err != nil {
			return err
		}
	}
}

// truncate 截掉 offset 之後的內容並補回換行，下一筆仍從新的一行開始
func (w *WAL) truncate(offset int64) error {
	if err := w.file.Truncate(offset); err != nil {
		return err
	}
	if offset == 0 {
		return w.file.Sync()
	}
	if _, err := w.file.Write([]byte{'\n'}); err != nil {
		return err
	}
	return w.file.Sync()
}

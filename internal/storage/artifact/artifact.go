// Пакет artifact — хранение аудио-артефактов на диске.
// Запись выполняется потоково с подсчётом SHA-256 на лету
// через temp файл → fsync → atomic rename. Чтение ищет файл сначала
// в директории загрузок, затем в дополнительных директориях (только чтение).
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Ошибки хранилища артефактов.
var (
	// ErrNotFound — артефакт не найден ни в одной директории.
	ErrNotFound = errors.New("файл не найден")
	// ErrInvalidName — имя содержит разделители пути или ссылку на родителя.
	ErrInvalidName = errors.New("недопустимое имя файла")
)

// Store — хранилище артефактов.
type Store interface {
	// Save потоково записывает данные под именем name в директорию загрузок.
	Save(name string, r io.Reader) (*SaveResult, error)
	// Import перемещает существующий файл srcPath в директорию загрузок под именем name.
	Import(srcPath, name string) error
	// Exists проверяет наличие артефакта в директории загрузок.
	Exists(name string) bool
	// Open открывает артефакт, просматривая все директории по порядку.
	Open(name string) (*os.File, os.FileInfo, error)
	// Path возвращает путь артефакта в директории загрузок.
	Path(name string) string
	// Remove удаляет артефакт из директории загрузок.
	Remove(name string) error
}

// SaveResult — результат сохранения артефакта.
type SaveResult struct {
	// Name — имя файла в директории загрузок
	Name string
	// FullPath — путь файла на диске
	FullPath string
	// Size — размер записанных данных в байтах
	Size int64
	// Checksum — SHA-256 хэш содержимого
	Checksum string
}

// DiskStore — хранилище артефактов в директориях файловой системы.
type DiskStore struct {
	// uploadDir — директория загрузок (чтение и запись)
	uploadDir string
	// readDirs — дополнительные директории только для чтения
	readDirs []string
}

// NewDiskStore создаёт хранилище. Директория загрузок создаётся,
// если не существует. Дополнительные директории могут отсутствовать.
func NewDiskStore(uploadDir string, readDirs ...string) (*DiskStore, error) {
	if err := os.MkdirAll(uploadDir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию загрузок %s: %w", uploadDir, err)
	}
	return &DiskStore{uploadDir: uploadDir, readDirs: readDirs}, nil
}

// UploadDir возвращает директорию загрузок.
func (s *DiskStore) UploadDir() string {
	return s.uploadDir
}

// Save записывает данные из reader в директорию загрузок.
// Существующий файл с тем же именем заменяется.
func (s *DiskStore) Save(name string, reader io.Reader) (*SaveResult, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	fullPath := filepath.Join(s.uploadDir, name)
	f, err := os.CreateTemp(s.uploadDir, name+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	tmpPath := f.Name()

	if err := f.Chmod(0o644); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка установки прав: %w", err)
	}

	hasher := sha256.New()
	size, err := io.Copy(f, io.TeeReader(reader, hasher))
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка записи данных: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return &SaveResult{
		Name:     name,
		FullPath: fullPath,
		Size:     size,
		Checksum: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// Import перемещает файл srcPath в директорию загрузок.
// Если rename невозможен (другая файловая система), файл копируется,
// а исходный удаляется.
func (s *DiskStore) Import(srcPath, name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	dst := filepath.Join(s.uploadDir, name)
	if err := os.Rename(srcPath, dst); err == nil {
		return nil
	}

	src, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, srcPath)
		}
		return fmt.Errorf("ошибка открытия файла %s: %w", srcPath, err)
	}
	defer src.Close()

	if _, err := s.Save(name, src); err != nil {
		return err
	}
	src.Close()

	if err := os.Remove(srcPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления исходного файла %s: %w", srcPath, err)
	}
	return nil
}

// Exists проверяет существование артефакта в директории загрузок.
func (s *DiskStore) Exists(name string) bool {
	if validateName(name) != nil {
		return false
	}
	info, err := os.Stat(filepath.Join(s.uploadDir, name))
	return err == nil && info.Mode().IsRegular()
}

// Open открывает артефакт для чтения. Вызывающий код обязан закрыть файл.
func (s *DiskStore) Open(name string) (*os.File, os.FileInfo, error) {
	if err := validateName(name); err != nil {
		return nil, nil, err
	}

	dirs := append([]string{s.uploadDir}, s.readDirs...)
	for _, dir := range dirs {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, nil, fmt.Errorf("ошибка открытия файла %s: %w", name, err)
		}

		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, nil, fmt.Errorf("ошибка получения информации о файле %s: %w", name, err)
		}
		if !info.Mode().IsRegular() {
			f.Close()
			continue
		}
		return f, info, nil
	}

	return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Path возвращает путь артефакта в директории загрузок.
func (s *DiskStore) Path(name string) string {
	return filepath.Join(s.uploadDir, name)
}

// Remove удаляет артефакт. Возвращает nil, если файла уже нет.
func (s *DiskStore) Remove(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.uploadDir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления файла %s: %w", name, err)
	}
	return nil
}

// validateName допускает только имя файла без компонентов пути.
func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

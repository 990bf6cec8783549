package core

import (
	"errors"
)

var (
	ErrAssetNotFound      = errors.New("asset not found")
	ErrUnknownAssetType   = errors.New("unknown asset type")
	ErrSceneParse         = errors.New("scene could not be parsed")
	ErrNoMeshes           = errors.New("scene contains no meshes")
	ErrUnsupportedFormat  = errors.New("unsupported format")
	ErrInvalidImage       = errors.New("image has no pixel data")
	ErrNoWorkers          = errors.New("attempting to create worker pool with less than 1 worker")
	ErrJobSystemStopped   = errors.New("job system is shut down")
	ErrRendererStopped    = errors.New("renderer is shut down")
	ErrTextureLimit       = errors.New("texture system cannot hold any more textures")
	ErrHandleReleased     = errors.New("handle already released")
	ErrAssetsStopped      = errors.New("asset manager is shut down")
	ErrAlreadyInitialized = errors.New("already initialized")
	ErrUnknown            = errors.New("unknown")
)

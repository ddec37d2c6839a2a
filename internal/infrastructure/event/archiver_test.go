package event

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/retail/sales/internal/domain/sales"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedUpload struct {
	key         string
	data        []byte
	contentType string
}

type fakeUploader struct {
	uploads []recordedUpload
	err     error
}

func (f *fakeUploader) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if f.err != nil {
		return f.err
	}
	f.uploads = append(f.uploads, recordedUpload{key: key, data: data, contentType: contentType})
	return nil
}

func TestObjectStoreArchiver_ArchiveKey(t *testing.T) {
	archiver := NewObjectStoreArchiver(&fakeUploader{}, "sales", NewSaleEventSerializer(), nil)
	sale := newArchivableSale(t)
	event := sales.NewSaleCreatedEvent(sale)

	key := archiver.ArchiveKey(event)
	prefix := "sales/" + sale.ID.String() + "/"
	require.True(t, strings.HasPrefix(key, prefix), key)

	name := strings.TrimPrefix(key, prefix)
	assert.True(t, strings.HasSuffix(name, "_SaleCreated_"+event.EventID().String()+".json"), name)
	assert.Equal(t, event.OccurredAt().UTC().Format(archiveTimeLayout), strings.SplitN(name, "_", 2)[0])
}

func TestObjectStoreArchiver_Handle(t *testing.T) {
	uploader := &fakeUploader{}
	serializer := NewSaleEventSerializer()
	archiver := NewObjectStoreArchiver(uploader, "archive", serializer, nil)

	sale := newArchivableSale(t)
	event := sales.NewItemCancelledEvent(sale, &sale.Items[0])
	require.NoError(t, archiver.Handle(context.Background(), event))

	require.Len(t, uploader.uploads, 1)
	upload := uploader.uploads[0]
	assert.Equal(t, archiver.ArchiveKey(event), upload.key)
	assert.Equal(t, "application/json", upload.contentType)

	decoded, err := serializer.Deserialize(upload.data)
	require.NoError(t, err)
	assert.Equal(t, sales.EventTypeItemCancelled, decoded.EventType())
}

func TestObjectStoreArchiver_UploadError(t *testing.T) {
	archiver := NewObjectStoreArchiver(&fakeUploader{err: errors.New("access denied")}, "sales", NewSaleEventSerializer(), nil)

	err := archiver.Handle(context.Background(), sales.NewSaleModifiedEvent(newArchivableSale(t)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to archive SaleModified")
}

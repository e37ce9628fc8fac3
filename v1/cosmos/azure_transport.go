package cosmos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	azruntime "github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
)

// azureTransport implements Transport with the Azure SDK for Go.
type azureTransport struct {
	client *azcosmos.Client
}

func newAzureTransport(cfg Config) (*azureTransport, error) {
	opts := &azcosmos.ClientOptions{
		ClientOptions: policy.ClientOptions{
			Telemetry:       policy.TelemetryOptions{ApplicationID: cfg.ApplicationName},
			PerCallPolicies: []policy.Policy{containerBodyPolicy{}},
			// Retries are applied by the client so that every attempt is
			// observed and classified the same way.
			Retry: policy.RetryOptions{MaxRetries: -1},
		},
		PreferredRegions: cfg.PreferredRegions,
	}

	var (
		client *azcosmos.Client
		err    error
	)
	switch cfg.AuthMode {
	case AuthKey:
		var cred azcosmos.KeyCredential
		cred, err = azcosmos.NewKeyCredential(cfg.Key)
		if err != nil {
			return nil, newError(KindAuth, opOpen, 0, err)
		}
		client, err = azcosmos.NewClientWithKey(cfg.Endpoint, cred, opts)
	case AuthManagedIdentity:
		var cred *azidentity.DefaultAzureCredential
		cred, err = azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, newError(KindAuth, opOpen, 0, err)
		}
		client, err = azcosmos.NewClient(cfg.Endpoint, cred, opts)
	case AuthConnectionString:
		client, err = azcosmos.NewClientFromConnectionString(cfg.ConnectionString, opts)
	default:
		return nil, validationError(opOpen, "unknown auth mode %q", cfg.AuthMode)
	}
	if err != nil {
		return nil, newError(KindValidation, opOpen, 0, err)
	}
	return &azureTransport{client: client}, nil
}

// toResponseError converts SDK failures to *ResponseError so that the
// client can classify them without depending on azcore.
func toResponseError(err error) error {
	if err == nil {
		return nil
	}
	var re *azcore.ResponseError
	if errors.As(err, &re) {
		return &ResponseError{StatusCode: re.StatusCode, Code: re.ErrorCode, Message: re.Error()}
	}
	return err
}

func (t *azureTransport) ListDatabases(ctx context.Context) ([]string, error) {
	pager := t.client.NewQueryDatabasesPager("SELECT * FROM dbs", nil)
	var names []string
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, toResponseError(err)
		}
		for _, db := range page.Databases {
			names = append(names, db.ID)
		}
	}
	return names, nil
}

func (t *azureTransport) CreateDatabase(ctx context.Context, id string, throughput *Throughput) error {
	var opts *azcosmos.CreateDatabaseOptions
	if throughput != nil {
		tp := toThroughputProperties(*throughput)
		opts = &azcosmos.CreateDatabaseOptions{ThroughputProperties: &tp}
	}
	_, err := t.client.CreateDatabase(ctx, azcosmos.DatabaseProperties{ID: id}, opts)
	return toResponseError(err)
}

func (t *azureTransport) ReadDatabase(ctx context.Context, id string) error {
	db, err := t.client.NewDatabase(id)
	if err != nil {
		return err
	}
	_, err = db.Read(ctx, nil)
	return toResponseError(err)
}

func (t *azureTransport) DeleteDatabase(ctx context.Context, id string) error {
	db, err := t.client.NewDatabase(id)
	if err != nil {
		return err
	}
	_, err = db.Delete(ctx, nil)
	return toResponseError(err)
}

func (t *azureTransport) ListContainers(ctx context.Context, database string) ([]string, error) {
	db, err := t.client.NewDatabase(database)
	if err != nil {
		return nil, err
	}
	pager := db.NewQueryContainersPager("SELECT * FROM colls", nil)
	var names []string
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, toResponseError(err)
		}
		for _, c := range page.Containers {
			names = append(names, c.ID)
		}
	}
	return names, nil
}

func (t *azureTransport) CreateContainer(ctx context.Context, database string, props ContainerProperties) error {
	db, err := t.client.NewDatabase(database)
	if err != nil {
		return err
	}
	var opts *azcosmos.CreateContainerOptions
	if props.Throughput != nil {
		tp := toThroughputProperties(*props.Throughput)
		opts = &azcosmos.CreateContainerOptions{ThroughputProperties: &tp}
	}
	typed := toAzureContainerProperties(props)
	base, err := json.Marshal(typed)
	if err != nil {
		return err
	}
	body, err := patchContainerResource(base, props)
	if err != nil {
		return err
	}
	_, err = db.CreateContainer(withContainerBody(ctx, body), typed, opts)
	return toResponseError(err)
}

func (t *azureTransport) container(ref ContainerRef) (*azcosmos.ContainerClient, error) {
	return t.client.NewContainer(ref.Database, ref.Container)
}

func (t *azureTransport) ReadContainer(ctx context.Context, ref ContainerRef) (ContainerProperties, error) {
	c, err := t.container(ref)
	if err != nil {
		return ContainerProperties{}, err
	}
	resp, err := c.Read(ctx, nil)
	if err != nil {
		return ContainerProperties{}, toResponseError(err)
	}
	raw, err := containerPayload(resp)
	if err != nil {
		return ContainerProperties{}, fmt.Errorf("container %s/%s: %w", ref.Database, ref.Container, err)
	}
	return decodeContainerResource(raw)
}

func (t *azureTransport) ReadContainerThroughput(ctx context.Context, ref ContainerRef) (*Throughput, error) {
	c, err := t.container(ref)
	if err != nil {
		return nil, err
	}
	resp, err := c.ReadThroughput(ctx, nil)
	return throughputFromResponse(resp, err)
}

// ReplaceContainer overlays props on the stored resource so that settings
// this package does not model, such as composite indexes or the partition
// key version, are sent back unchanged.
func (t *azureTransport) ReplaceContainer(ctx context.Context, ref ContainerRef, props ContainerProperties) (ContainerProperties, error) {
	c, err := t.container(ref)
	if err != nil {
		return ContainerProperties{}, err
	}
	current, err := c.Read(ctx, nil)
	if err != nil {
		return ContainerProperties{}, toResponseError(err)
	}
	base, err := containerPayload(current)
	if err != nil {
		return ContainerProperties{}, fmt.Errorf("container %s/%s: %w", ref.Database, ref.Container, err)
	}
	body, err := patchContainerResource(base, props)
	if err != nil {
		return ContainerProperties{}, err
	}

	resp, err := c.Replace(withContainerBody(ctx, body), toAzureContainerProperties(props), nil)
	if err != nil {
		return ContainerProperties{}, toResponseError(err)
	}
	raw, err := containerPayload(resp)
	if err != nil {
		return props, nil
	}
	return decodeContainerResource(raw)
}

func (t *azureTransport) DeleteContainer(ctx context.Context, ref ContainerRef) error {
	c, err := t.container(ref)
	if err != nil {
		return err
	}
	_, err = c.Delete(ctx, nil)
	return toResponseError(err)
}

// containerPayload returns the raw resource JSON of a container response.
// The SDK has already read the body; azcore caches it for re-reads.
func containerPayload(resp azcosmos.ContainerResponse) ([]byte, error) {
	if resp.RawResponse == nil {
		return nil, errors.New("response has no body")
	}
	raw, err := azruntime.Payload(resp.RawResponse)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("response has no body")
	}
	return raw, nil
}

// throughputFromResponse maps a throughput read. Containers on shared
// database throughput answer 404 and serverless accounts answer 400; both
// mean there is no dedicated throughput.
func throughputFromResponse(resp azcosmos.ThroughputResponse, err error) (*Throughput, error) {
	if err != nil {
		var re *azcore.ResponseError
		if errors.As(err, &re) && (re.StatusCode == http.StatusNotFound || re.StatusCode == http.StatusBadRequest) {
			return nil, nil
		}
		return nil, toResponseError(err)
	}
	if resp.ThroughputProperties == nil {
		return nil, nil
	}
	return fromThroughputProperties(*resp.ThroughputProperties), nil
}

func itemResponse(resp azcosmos.ItemResponse) ItemResponse {
	status := 0
	if resp.RawResponse != nil {
		status = resp.RawResponse.StatusCode
	}
	return ItemResponse{
		StatusCode:    status,
		Body:          resp.Value,
		ETag:          string(resp.ETag),
		RequestCharge: float64(resp.RequestCharge),
	}
}

func (t *azureTransport) ReadItem(ctx context.Context, ref ContainerRef, pk, id string) (ItemResponse, error) {
	c, err := t.container(ref)
	if err != nil {
		return ItemResponse{}, err
	}
	resp, err := c.ReadItem(ctx, azcosmos.NewPartitionKeyString(pk), id, nil)
	if err != nil {
		return ItemResponse{}, toResponseError(err)
	}
	return itemResponse(resp), nil
}

func (t *azureTransport) CreateItem(ctx context.Context, ref ContainerRef, pk string, body []byte) (ItemResponse, error) {
	c, err := t.container(ref)
	if err != nil {
		return ItemResponse{}, err
	}
	resp, err := c.CreateItem(ctx, azcosmos.NewPartitionKeyString(pk), body, &azcosmos.ItemOptions{EnableContentResponseOnWrite: true})
	if err != nil {
		return ItemResponse{}, toResponseError(err)
	}
	return itemResponse(resp), nil
}

func (t *azureTransport) UpsertItem(ctx context.Context, ref ContainerRef, pk string, body []byte, ifMatch string) (ItemResponse, error) {
	c, err := t.container(ref)
	if err != nil {
		return ItemResponse{}, err
	}
	opts := &azcosmos.ItemOptions{EnableContentResponseOnWrite: true}
	if ifMatch != "" {
		etag := azcore.ETag(ifMatch)
		opts.IfMatchEtag = &etag
	}
	resp, err := c.UpsertItem(ctx, azcosmos.NewPartitionKeyString(pk), body, opts)
	if err != nil {
		return ItemResponse{}, toResponseError(err)
	}
	return itemResponse(resp), nil
}

func (t *azureTransport) DeleteItem(ctx context.Context, ref ContainerRef, pk, id string) (ItemResponse, error) {
	c, err := t.container(ref)
	if err != nil {
		return ItemResponse{}, err
	}
	resp, err := c.DeleteItem(ctx, azcosmos.NewPartitionKeyString(pk), id, nil)
	if err != nil {
		return ItemResponse{}, toResponseError(err)
	}
	return itemResponse(resp), nil
}

func (t *azureTransport) QueryPage(ctx context.Context, ref ContainerRef, req QueryRequest) (QueryPage, error) {
	c, err := t.container(ref)
	if err != nil {
		return QueryPage{}, err
	}

	pk := azcosmos.NewPartitionKey()
	if req.PartitionKey != nil {
		pk = azcosmos.NewPartitionKeyString(*req.PartitionKey)
	}

	opts := &azcosmos.QueryOptions{PageSizeHint: int32(req.PageSize)}
	if req.Continuation != "" {
		token := req.Continuation
		opts.ContinuationToken = &token
	}
	for _, p := range req.Parameters {
		opts.QueryParameters = append(opts.QueryParameters, azcosmos.QueryParameter{Name: p.Name, Value: p.Value})
	}

	pager := c.NewQueryItemsPager(req.SQL, pk, opts)
	if !pager.More() {
		return QueryPage{}, nil
	}
	page, err := pager.NextPage(ctx)
	if err != nil {
		return QueryPage{}, toResponseError(err)
	}

	out := QueryPage{
		Items:         page.Items,
		RequestCharge: float64(page.RequestCharge),
	}
	if page.ContinuationToken != nil {
		out.Continuation = *page.ContinuationToken
	}
	return out, nil
}

func (t *azureTransport) ExecuteBatch(ctx context.Context, ref ContainerRef, pk string, ops []BatchStep) (BatchResponse, error) {
	c, err := t.container(ref)
	if err != nil {
		return BatchResponse{}, err
	}

	batch := c.NewTransactionalBatch(azcosmos.NewPartitionKeyString(pk))
	for _, op := range ops {
		var itemOpts *azcosmos.TransactionalBatchItemOptions
		if op.IfMatch != "" {
			etag := azcore.ETag(op.IfMatch)
			itemOpts = &azcosmos.TransactionalBatchItemOptions{IfMatchETag: &etag}
		}
		switch op.Type {
		case BatchCreate:
			batch.CreateItem(op.Body, itemOpts)
		case BatchUpsert:
			batch.UpsertItem(op.Body, itemOpts)
		case BatchReplace:
			batch.ReplaceItem(op.ID, op.Body, itemOpts)
		case BatchRead:
			batch.ReadItem(op.ID, itemOpts)
		case BatchDelete:
			batch.DeleteItem(op.ID, itemOpts)
		default:
			return BatchResponse{}, fmt.Errorf("unknown batch operation %d", op.Type)
		}
	}

	resp, err := c.ExecuteTransactionalBatch(ctx, batch, nil)
	if err != nil {
		return BatchResponse{}, toResponseError(err)
	}

	out := BatchResponse{
		Success:       resp.Success,
		RequestCharge: float64(resp.RequestCharge),
		Results:       make([]ItemResponse, 0, len(resp.OperationResults)),
	}
	for _, r := range resp.OperationResults {
		out.Results = append(out.Results, ItemResponse{
			StatusCode:    int(r.StatusCode),
			Body:          r.ResourceBody,
			ETag:          string(r.ETag),
			RequestCharge: float64(r.RequestCharge),
		})
	}
	return out, nil
}

// Close is a no-op: the SDK client holds no resources beyond the shared
// HTTP connection pool.
func (t *azureTransport) Close() error {
	return nil
}

func toThroughputProperties(tp Throughput) azcosmos.ThroughputProperties {
	if tp.Autoscale {
		return azcosmos.NewAutoscaleThroughputProperties(int32(tp.RU))
	}
	return azcosmos.NewManualThroughputProperties(int32(tp.RU))
}

func fromThroughputProperties(tp azcosmos.ThroughputProperties) *Throughput {
	if ceiling, ok := tp.AutoscaleMaxThroughput(); ok && ceiling > 0 {
		return &Throughput{RU: int(ceiling), Autoscale: true}
	}
	if manual, ok := tp.ManualThroughput(); ok && manual > 0 {
		return &Throughput{RU: int(manual)}
	}
	return nil
}

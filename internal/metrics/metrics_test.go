package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
)

type fakeCloudWatch struct {
	calls []*cloudwatch.PutMetricDataInput
	err   error
}

func (f *fakeCloudWatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.calls = append(f.calls, params)
	if f.err != nil {
		return nil, f.err
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestCount_PublishesDatum(t *testing.T) {
	cw := &fakeCloudWatch{}
	p := NewPublisher(cw, "Storefront")

	p.Count(context.Background(), OrdersCreated, 1)

	if len(cw.calls) != 1 {
		t.Fatalf("expected 1 PutMetricData call, got %d", len(cw.calls))
	}
	in := cw.calls[0]
	if *in.Namespace != "Storefront" {
		t.Fatalf("namespace = %s", *in.Namespace)
	}
	if len(in.MetricData) != 1 {
		t.Fatalf("expected 1 datum, got %d", len(in.MetricData))
	}
	d := in.MetricData[0]
	if *d.MetricName != OrdersCreated || *d.Value != 1 {
		t.Fatalf("bad datum: name=%s value=%v", *d.MetricName, *d.Value)
	}
}

func TestCount_NilSafe(t *testing.T) {
	var p *Publisher
	// must not panic
	p.Count(context.Background(), OrdersCreated, 1)

	p2 := NewPublisher(nil, "Storefront")
	p2.Count(context.Background(), OrdersCreated, 1)
}

func TestCount_SwallowsErrors(t *testing.T) {
	cw := &fakeCloudWatch{err: errors.New("throttled")}
	p := NewPublisher(cw, "Storefront")

	// must not panic or propagate
	p.Count(context.Background(), PaymentFailures, 1)
	if len(cw.calls) != 1 {
		t.Fatalf("expected the call to be attempted, got %d", len(cw.calls))
	}
}
